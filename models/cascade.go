package models

// CascadeRule is a declared, user-ordered dependency between two singleSelect
// fields: the child's options are filtered to those whose ParentId equals the
// parent field's current value. Rules resolve in ascending Order; the first
// enabled rule matching a child field wins.
type CascadeRule struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	ParentFieldId string `json:"parentFieldId"`
	ChildFieldId  string `json:"childFieldId"`
	Enabled       bool   `json:"enabled"`
	Order         int    `json:"order"`
}
