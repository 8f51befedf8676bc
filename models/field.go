package models

type FieldType string

const (
	FieldTypeText         FieldType = "text"
	FieldTypeNumber       FieldType = "number"
	FieldTypeDate         FieldType = "date"
	FieldTypeSingleSelect FieldType = "singleSelect"
	FieldTypeMultiSelect  FieldType = "multiSelect"
	FieldTypeCheckbox     FieldType = "checkbox"
	FieldTypeAttachment   FieldType = "attachment"
	FieldTypeImage        FieldType = "image"
	FieldTypeMember       FieldType = "member"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeSingleSelect,
		FieldTypeMultiSelect, FieldTypeCheckbox, FieldTypeAttachment,
		FieldTypeImage, FieldTypeMember:
		return true
	}
	return false
}

// IsSelect reports whether the type carries an option list.
func (t FieldType) IsSelect() bool {
	return t == FieldTypeSingleSelect || t == FieldTypeMultiSelect
}

// FieldOption is one entry of a select-type field's option list. ParentId
// encodes a static cascade relationship: the option is only valid while its
// parent option is selected in another field.
type FieldOption struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	ParentId string `json:"parentId,omitempty"`
}

type Field struct {
	Id      string        `json:"id"`
	TableId string        `json:"tableId"`
	Name    string        `json:"name"`
	Type    FieldType     `json:"type"`
	Width   int           `json:"width,omitempty"`
	Options []FieldOption `json:"options,omitempty"`
}

// Option returns the option with the given id, if any.
func (f Field) Option(optionId string) (FieldOption, bool) {
	for _, opt := range f.Options {
		if opt.Id == optionId {
			return opt, true
		}
	}
	return FieldOption{}, false
}

type CreateFieldRequest struct {
	Name    string        `json:"name"`
	Type    FieldType     `json:"type"`
	Width   int           `json:"width,omitempty"`
	Options []FieldOption `json:"options,omitempty"`
}
