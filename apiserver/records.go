package apiserver

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/helper"
	"gridbase/gridbase_go_view_engine_service/pkg/logger"
)

const maxPageSize = 500

func (s *Server) queryRecords(c *gin.Context) {
	var req models.RecordQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tableId := c.Param("tableId")
	records, ok := s.records[tableId]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "table not found"})
		return
	}

	filters, sorts, filterLogic, err := s.effectiveQuery(tableId, req)
	if err != "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err})
		return
	}

	matched := applyFiltersAndSorts(records, s.fields[tableId], filters, sorts, filterLogic)

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	start := 0
	if req.Cursor != "" {
		start = cast.ToInt(req.Cursor)
		if start < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed cursor"})
			return
		}
	}
	if start > len(matched) {
		start = len(matched)
	}

	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := models.RecordPage{
		Items:      matched[start:end],
		TotalCount: len(matched),
	}
	if end < len(matched) {
		page.NextCursor = cast.ToString(end)
	}
	if page.Items == nil {
		page.Items = []models.Record{}
	}

	c.JSON(http.StatusOK, page)
}

// effectiveQuery falls back to the view's stored filters/sorts when the
// request leaves them unset, like the production service does.
func (s *Server) effectiveQuery(tableId string, req models.RecordQueryRequest) ([]models.FilterCondition, []models.SortCondition, string, string) {
	filters := req.Filters
	sorts := req.Sorts
	filterLogic := strings.ToLower(req.FilterLogic)

	if req.ViewId != "" {
		for _, view := range s.views[tableId] {
			if view.Id == req.ViewId {
				if filters == nil {
					filters = view.Config.Filters
				}
				if sorts == nil {
					sorts = view.Config.Sorts
				}
				if filterLogic == "" {
					filterLogic = string(view.Config.FilterLogic)
				}
				break
			}
		}
	}
	if filterLogic == "" {
		filterLogic = "and"
	}
	if filterLogic != "and" && filterLogic != "or" {
		return nil, nil, "", "filterLogic must be and / or"
	}
	return filters, sorts, filterLogic, ""
}

func (s *Server) createRecord(c *gin.Context) {
	var req models.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tableId := c.Param("tableId")
	fields, ok := s.fields[tableId]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "table not found"})
		return
	}

	values := map[string]any{}
	for fieldId, value := range req.InitialValues {
		field, found := fieldById(fields, fieldId)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"detail": "field not found: " + fieldId})
			return
		}
		if err := helper.ValidateValue(field, value); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		values[fieldId] = value
	}

	record := models.Record{
		Id:      "rec_" + uuid.New().String(),
		TableId: tableId,
		Values:  values,
	}
	s.records[tableId] = append(s.records[tableId], record)

	s.log.Info("record created", logger.String("tableId", tableId), logger.String("recordId", record.Id))
	c.JSON(http.StatusOK, record)
}

func (s *Server) patchRecord(c *gin.Context) {
	var req models.PatchRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordId := c.Param("recordId")
	if s.FailPatchRecordIds[recordId] {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "forced failure"})
		return
	}

	for tableId, records := range s.records {
		for i := range records {
			if records[i].Id != recordId {
				continue
			}
			for fieldId, value := range req.ValuesPatch {
				field, found := fieldById(s.fields[tableId], fieldId)
				if !found {
					c.JSON(http.StatusNotFound, gin.H{"detail": "field not found: " + fieldId})
					return
				}
				if err := helper.ValidateValue(field, value); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
					return
				}
				if records[i].Values == nil {
					records[i].Values = map[string]any{}
				}
				records[i].Values[fieldId] = value
			}
			c.JSON(http.StatusOK, records[i])
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "record not found"})
}

func (s *Server) deleteRecord(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordId := c.Param("recordId")
	if s.FailDeleteRecordIds[recordId] {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "forced failure"})
		return
	}

	for tableId, records := range s.records {
		for i := range records {
			if records[i].Id == recordId {
				s.records[tableId] = append(records[:i:i], records[i+1:]...)
				c.Status(http.StatusNoContent)
				return
			}
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "record not found"})
}

func (s *Server) deleteRecordsByQuery(c *gin.Context) {
	var req models.RecordQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tableId := c.Param("tableId")
	records, ok := s.records[tableId]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "table not found"})
		return
	}

	filters, sorts, filterLogic, errMsg := s.effectiveQuery(tableId, req)
	if errMsg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": errMsg})
		return
	}

	matched := applyFiltersAndSorts(records, s.fields[tableId], filters, sorts, filterLogic)
	doomed := map[string]bool{}
	for _, record := range matched {
		doomed[record.Id] = true
	}

	kept := make([]models.Record, 0, len(records))
	for _, record := range records {
		if !doomed[record.Id] {
			kept = append(kept, record)
		}
	}
	s.records[tableId] = kept

	c.JSON(http.StatusOK, gin.H{"deletedCount": len(doomed)})
}

func fieldById(fields []models.Field, id string) (models.Field, bool) {
	for _, f := range fields {
		if f.Id == id {
			return f, true
		}
	}
	return models.Field{}, false
}

func applyFiltersAndSorts(
	records []models.Record,
	fields []models.Field,
	filters []models.FilterCondition,
	sorts []models.SortCondition,
	filterLogic string,
) []models.Record {
	matched := make([]models.Record, 0, len(records))

	valid := make([]models.FilterCondition, 0, len(filters))
	for _, f := range filters {
		if f.FieldId != "" {
			valid = append(valid, f)
		}
	}

	if len(valid) == 0 {
		matched = append(matched, records...)
	} else {
		for _, record := range records {
			hit := filterLogic != "or"
			for _, cond := range valid {
				field, _ := fieldById(fields, cond.FieldId)
				ok := matchFilter(field, record.Values[cond.FieldId], cond)
				if filterLogic == "or" {
					if ok {
						hit = true
						break
					}
				} else if !ok {
					hit = false
					break
				}
			}
			if hit {
				matched = append(matched, record)
			}
		}
	}

	// Later sorts are subordinate: apply in reverse with a stable sort,
	// nulls always last regardless of direction.
	for i := len(sorts) - 1; i >= 0; i-- {
		cond := sorts[i]
		if cond.FieldId == "" {
			continue
		}
		field, _ := fieldById(fields, cond.FieldId)
		desc := strings.EqualFold(cond.Direction, "desc")

		nonNull := make([]models.Record, 0, len(matched))
		null := make([]models.Record, 0)
		for _, record := range matched {
			if record.Values[cond.FieldId] == nil {
				null = append(null, record)
			} else {
				nonNull = append(nonNull, record)
			}
		}
		sort.SliceStable(nonNull, func(a, b int) bool {
			less := sortLess(field, nonNull[a].Values[cond.FieldId], nonNull[b].Values[cond.FieldId])
			if desc {
				return !less && !sortEqual(field, nonNull[a].Values[cond.FieldId], nonNull[b].Values[cond.FieldId])
			}
			return less
		})
		matched = append(nonNull, null...)
	}

	return matched
}

func matchFilter(field models.Field, value any, cond models.FilterCondition) bool {
	op := strings.ToLower(cond.Op)
	if op == "" {
		op = "contains"
	}

	switch op {
	case "contains":
		return strings.Contains(
			strings.ToLower(cast.ToString(value)),
			strings.ToLower(cast.ToString(cond.Value)),
		)
	case "eq", "equals":
		return helper.ValuesEqual(value, cond.Value)
	case "neq":
		return !helper.ValuesEqual(value, cond.Value)
	case "in":
		list, ok := cond.Value.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if helper.ValuesEqual(value, item) {
				return true
			}
		}
		return false
	case "nin":
		list, ok := cond.Value.([]any)
		if !ok {
			return true
		}
		for _, item := range list {
			if helper.ValuesEqual(value, item) {
				return false
			}
		}
		return true
	case "empty":
		return isEmptyValue(value)
	case "not_empty":
		return !isEmptyValue(value)
	case "gt", "gte", "lt", "lte":
		return compareOrdered(field, value, cond.Value, op)
	}

	if field.Type == models.FieldTypeSingleSelect {
		return helper.ValuesEqual(value, cond.Value)
	}
	return strings.Contains(
		strings.ToLower(cast.ToString(value)),
		strings.ToLower(cast.ToString(cond.Value)),
	)
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func compareOrdered(field models.Field, value, expected any, op string) bool {
	if field.Type == models.FieldTypeDate {
		a, aok := value.(string)
		b, bok := expected.(string)
		if !aok || !bok {
			return false
		}
		return orderedResult(strings.Compare(a, b), op)
	}

	a, aok := toNumber(value)
	b, bok := toNumber(expected)
	if !aok || !bok {
		return false
	}
	switch {
	case a < b:
		return orderedResult(-1, op)
	case a > b:
		return orderedResult(1, op)
	default:
		return orderedResult(0, op)
	}
}

func orderedResult(cmp int, op string) bool {
	switch op {
	case "gt":
		return cmp > 0
	case "gte":
		return cmp >= 0
	case "lt":
		return cmp < 0
	default:
		return cmp <= 0
	}
}

func toNumber(value any) (float64, bool) {
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return cast.ToFloat64(value), true
	}
	return 0, false
}

func sortLess(field models.Field, a, b any) bool {
	switch field.Type {
	case models.FieldTypeNumber:
		fa, _ := toNumber(a)
		fb, _ := toNumber(b)
		return fa < fb
	case models.FieldTypeDate:
		return cast.ToString(a) < cast.ToString(b)
	default:
		return strings.ToLower(cast.ToString(a)) < strings.ToLower(cast.ToString(b))
	}
}

func sortEqual(field models.Field, a, b any) bool {
	return !sortLess(field, a, b) && !sortLess(field, b, a)
}
