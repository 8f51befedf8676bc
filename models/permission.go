package models

type TablePermission struct {
	UserId   string `json:"userId"`
	CanRead  bool   `json:"canRead"`
	CanWrite bool   `json:"canWrite"`
}

type ViewPermission struct {
	UserId   string `json:"userId"`
	CanRead  bool   `json:"canRead"`
	CanWrite bool   `json:"canWrite"`
}

// ButtonPermissionSet gates destructive and structural actions for the
// current user. Consumed as booleans, never produced by the engine.
type ButtonPermissionSet struct {
	CanCreateRecord  bool `json:"canCreateRecord"`
	CanDeleteRecord  bool `json:"canDeleteRecord"`
	CanImportRecords bool `json:"canImportRecords"`
	CanExportRecords bool `json:"canExportRecords"`
	CanManageFilters bool `json:"canManageFilters"`
	CanManageSorts   bool `json:"canManageSorts"`
}

// ReferenceMember resolves member-type field values to display names.
type ReferenceMember struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}
