package models

import "time"

type OperationAction string

const (
	OperationCreate OperationAction = "create"
	OperationUpdate OperationAction = "update"
	OperationDelete OperationAction = "delete"
	OperationImport OperationAction = "import"
)

type FieldChange struct {
	FieldId   string `json:"fieldId"`
	FieldName string `json:"fieldName"`
	OldValue  string `json:"oldValue"`
	NewValue  string `json:"newValue"`
}

// OperationLogEntry records one record-level mutation for audit display.
// Values are stored in truncated string form.
type OperationLogEntry struct {
	Id       string          `json:"id"`
	Action   OperationAction `json:"action"`
	TableId  string          `json:"tableId"`
	RecordId string          `json:"recordId,omitempty"`
	Changes  []FieldChange   `json:"changes,omitempty"`
	At       time.Time       `json:"at"`
}
