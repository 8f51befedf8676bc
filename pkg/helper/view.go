package helper

import (
	"sort"

	"gridbase/gridbase_go_view_engine_service/models"
)

// NormalizeViewConfig re-derives the cross-field invariants of a view config
// against the table's current field set:
//   - FieldOrderIds holds every field exactly once (unknown ids dropped,
//     missing fields appended in table order);
//   - a hidden field is never frozen;
//   - widths and component bindings of removed fields are dropped.
func NormalizeViewConfig(cfg models.ViewConfig, fields []models.Field) models.ViewConfig {
	known := map[string]bool{}
	for _, f := range fields {
		known[f.Id] = true
	}

	order := make([]string, 0, len(fields))
	seen := map[string]bool{}
	for _, id := range cfg.FieldOrderIds {
		if known[id] && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	for _, f := range fields {
		if !seen[f.Id] {
			order = append(order, f.Id)
			seen[f.Id] = true
		}
	}
	cfg.FieldOrderIds = order

	hidden := make([]string, 0, len(cfg.HiddenFieldIds))
	hiddenSet := map[string]bool{}
	for _, id := range cfg.HiddenFieldIds {
		if known[id] && !hiddenSet[id] {
			hidden = append(hidden, id)
			hiddenSet[id] = true
		}
	}
	cfg.HiddenFieldIds = hidden

	frozen := make([]string, 0, len(cfg.FrozenFieldIds))
	for _, id := range cfg.FrozenFieldIds {
		if known[id] && !hiddenSet[id] {
			frozen = append(frozen, id)
		}
	}
	cfg.FrozenFieldIds = frozen

	if cfg.ColumnWidths == nil {
		cfg.ColumnWidths = map[string]int{}
	}
	for id := range cfg.ColumnWidths {
		if !known[id] {
			delete(cfg.ColumnWidths, id)
		}
	}
	for id := range cfg.Components {
		if !known[id] {
			delete(cfg.Components, id)
		}
	}

	if cfg.Sorts == nil {
		cfg.Sorts = []models.SortCondition{}
	}
	if cfg.Filters == nil {
		cfg.Filters = []models.FilterCondition{}
	}
	if cfg.FilterPresets == nil {
		cfg.FilterPresets = []models.FilterPreset{}
	}
	if cfg.FilterLogic == "" {
		cfg.FilterLogic = models.FilterLogicAnd
	}

	return cfg
}

// VisibleFieldIds returns the ordered ids not hidden in this view.
func VisibleFieldIds(cfg models.ViewConfig) []string {
	hidden := map[string]bool{}
	for _, id := range cfg.HiddenFieldIds {
		hidden[id] = true
	}

	visible := make([]string, 0, len(cfg.FieldOrderIds))
	for _, id := range cfg.FieldOrderIds {
		if !hidden[id] {
			visible = append(visible, id)
		}
	}
	return visible
}

// PurgeFieldFromConfig removes every trace of a deleted field.
func PurgeFieldFromConfig(cfg models.ViewConfig, fieldId string) models.ViewConfig {
	cfg.FieldOrderIds = removeId(cfg.FieldOrderIds, fieldId)
	cfg.HiddenFieldIds = removeId(cfg.HiddenFieldIds, fieldId)
	cfg.FrozenFieldIds = removeId(cfg.FrozenFieldIds, fieldId)
	delete(cfg.ColumnWidths, fieldId)
	delete(cfg.Components, fieldId)

	filters := make([]models.FilterCondition, 0, len(cfg.Filters))
	for _, f := range cfg.Filters {
		if f.FieldId != fieldId {
			filters = append(filters, f)
		}
	}
	cfg.Filters = filters

	sorts := make([]models.SortCondition, 0, len(cfg.Sorts))
	for _, s := range cfg.Sorts {
		if s.FieldId != fieldId {
			sorts = append(sorts, s)
		}
	}
	cfg.Sorts = sorts

	return cfg
}

func removeId(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, item := range ids {
		if item != id {
			out = append(out, item)
		}
	}
	return out
}

// SortPresets orders filter presets pinned-first, then by name.
func SortPresets(presets []models.FilterPreset) []models.FilterPreset {
	out := make([]models.FilterPreset, len(presets))
	copy(out, presets)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MergeConfigPatch applies an in-session partial update. Nil patch members
// leave the config untouched.
func MergeConfigPatch(cfg models.ViewConfig, patch models.ViewConfigPatch) models.ViewConfig {
	if patch.HiddenFieldIds != nil {
		cfg.HiddenFieldIds = patch.HiddenFieldIds
	}
	if patch.FieldOrderIds != nil {
		cfg.FieldOrderIds = patch.FieldOrderIds
	}
	if patch.FrozenFieldIds != nil {
		cfg.FrozenFieldIds = patch.FrozenFieldIds
	}
	if patch.ColumnWidths != nil {
		if cfg.ColumnWidths == nil {
			cfg.ColumnWidths = map[string]int{}
		}
		for id, width := range patch.ColumnWidths {
			cfg.ColumnWidths[id] = width
		}
	}
	if patch.Sorts != nil {
		cfg.Sorts = patch.Sorts
	}
	if patch.Filters != nil {
		cfg.Filters = patch.Filters
	}
	if patch.FilterLogic != nil {
		cfg.FilterLogic = *patch.FilterLogic
	}
	if patch.FilterPresets != nil {
		cfg.FilterPresets = patch.FilterPresets
	}
	if patch.CompactEmptyRows != nil {
		cfg.CompactEmptyRows = *patch.CompactEmptyRows
	}
	if patch.Components != nil {
		if cfg.Components == nil {
			cfg.Components = map[string]models.FieldComponentConfig{}
		}
		for id, component := range patch.Components {
			cfg.Components[id] = component
		}
	}
	if patch.FormSettings != nil {
		cfg.FormSettings = patch.FormSettings
	}
	return cfg
}
