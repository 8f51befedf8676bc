package models

type ViewType string

const (
	ViewTypeGrid ViewType = "grid"
	ViewTypeForm ViewType = "form"
)

type FilterLogic string

const (
	FilterLogicAnd FilterLogic = "and"
	FilterLogicOr  FilterLogic = "or"
)

type FilterCondition struct {
	FieldId string `json:"fieldId"`
	Op      string `json:"op"`
	Value   any    `json:"value,omitempty"`
}

type SortCondition struct {
	FieldId   string `json:"fieldId"`
	Direction string `json:"direction"`
}

// FilterPreset is a named, pinnable snapshot of a filter/sort combination.
type FilterPreset struct {
	Id          string            `json:"id"`
	Name        string            `json:"name"`
	Pinned      bool              `json:"pinned"`
	FilterLogic FilterLogic       `json:"filterLogic"`
	Filters     []FilterCondition `json:"filters"`
	Sorts       []SortCondition   `json:"sorts"`
}

// CascaderBinding is a view-local dependency: the bound field's options are
// the names mapped from the parent field's current value. It takes precedence
// over global cascade rules for the field it is configured on.
type CascaderBinding struct {
	ParentFieldId string              `json:"parentFieldId"`
	Mappings      map[string][]string `json:"mappings"`
}

type FieldComponentConfig struct {
	Component string           `json:"component,omitempty"`
	Cascader  *CascaderBinding `json:"cascader,omitempty"`
}

type ViewConfig struct {
	HiddenFieldIds   []string                        `json:"hiddenFieldIds"`
	FieldOrderIds    []string                        `json:"fieldOrderIds"`
	FrozenFieldIds   []string                        `json:"frozenFieldIds"`
	ColumnWidths     map[string]int                  `json:"columnWidths"`
	Sorts            []SortCondition                 `json:"sorts"`
	Filters          []FilterCondition               `json:"filters"`
	FilterLogic      FilterLogic                     `json:"filterLogic"`
	FilterPresets    []FilterPreset                  `json:"filterPresets"`
	IsEnabled        bool                            `json:"isEnabled"`
	Order            int                             `json:"order"`
	CompactEmptyRows bool                            `json:"compactEmptyRows"`
	Components       map[string]FieldComponentConfig `json:"components,omitempty"`
	FormSettings     map[string]any                  `json:"formSettings,omitempty"`
}

func DefaultViewConfig() ViewConfig {
	return ViewConfig{
		HiddenFieldIds: []string{},
		FieldOrderIds:  []string{},
		FrozenFieldIds: []string{},
		ColumnWidths:   map[string]int{},
		Sorts:          []SortCondition{},
		Filters:        []FilterCondition{},
		FilterLogic:    FilterLogicAnd,
		FilterPresets:  []FilterPreset{},
		IsEnabled:      true,
	}
}

type View struct {
	Id      string     `json:"id"`
	TableId string     `json:"tableId"`
	Name    string     `json:"name"`
	Type    ViewType   `json:"type"`
	Config  ViewConfig `json:"config"`
}

type CreateViewRequest struct {
	Name   string      `json:"name"`
	Type   ViewType    `json:"type"`
	Config *ViewConfig `json:"config,omitempty"`
}

// PatchViewRequest carries only the keys to change; nil means untouched.
type PatchViewRequest struct {
	Name   *string     `json:"name,omitempty"`
	Type   *ViewType   `json:"type,omitempty"`
	Config *ViewConfig `json:"config,omitempty"`
}

// ViewConfigPatch is the in-session partial update merged by the store before
// the debounced persistence cycle. Nil slices/maps mean untouched.
type ViewConfigPatch struct {
	HiddenFieldIds   []string
	FieldOrderIds    []string
	FrozenFieldIds   []string
	ColumnWidths     map[string]int
	Sorts            []SortCondition
	Filters          []FilterCondition
	FilterLogic      *FilterLogic
	FilterPresets    []FilterPreset
	CompactEmptyRows *bool
	Components       map[string]FieldComponentConfig
	FormSettings     map[string]any
}
