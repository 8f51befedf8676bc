package models

type Record struct {
	Id      string         `json:"id"`
	TableId string         `json:"tableId"`
	Values  map[string]any `json:"values"`
}

type RecordPage struct {
	Items      []Record `json:"items"`
	NextCursor string   `json:"nextCursor,omitempty"`
	TotalCount int      `json:"totalCount"`
}

type RecordQueryRequest struct {
	ViewId      string            `json:"viewId,omitempty"`
	Cursor      string            `json:"cursor,omitempty"`
	PageSize    int               `json:"pageSize"`
	Filters     []FilterCondition `json:"filters,omitempty"`
	Sorts       []SortCondition   `json:"sorts,omitempty"`
	FilterLogic string            `json:"filterLogic,omitempty"`
}

type CreateRecordRequest struct {
	InitialValues map[string]any `json:"initialValues"`
}

type PatchRecordRequest struct {
	ValuesPatch map[string]any `json:"valuesPatch"`
}

// BulkDeleteResult tallies a partial-failure-tolerant bulk delete.
type BulkDeleteResult struct {
	Succeeded []string
	Failed    []string
}

// BulkImportResult tallies a chunked import run.
type BulkImportResult struct {
	Created int
	Failed  int
}
