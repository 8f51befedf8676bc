// Package cascade computes valid option sets and invalidation patches for
// select fields whose options depend on another field's current value.
package cascade

import (
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"gridbase/gridbase_go_view_engine_service/models"
)

// stringForm is the comparison form for all parent/option lookups. An empty
// string means "no constraint", never a valid parent option id.
func stringForm(value any) string {
	if value == nil {
		return ""
	}
	return cast.ToString(value)
}

func fieldById(fields []models.Field, id string) (models.Field, bool) {
	for _, f := range fields {
		if f.Id == id {
			return f, true
		}
	}
	return models.Field{}, false
}

// InferRules bootstraps cascade rules from static option metadata: for every
// singleSelect field whose options carry parent ids, it finds a singleSelect
// field whose option-id set covers all of them and emits one rule per match,
// ordered by discovery. Once rules exist they are the source of truth and are
// never regenerated from here.
func InferRules(fields []models.Field) []models.CascadeRule {
	rules := []models.CascadeRule{}

	for _, child := range fields {
		if child.Type != models.FieldTypeSingleSelect {
			continue
		}

		parentIds := map[string]bool{}
		for _, opt := range child.Options {
			if opt.ParentId != "" {
				parentIds[opt.ParentId] = true
			}
		}
		if len(parentIds) == 0 {
			continue
		}

		for _, parent := range fields {
			if parent.Id == child.Id || parent.Type != models.FieldTypeSingleSelect {
				continue
			}
			if !coversAll(parent.Options, parentIds) {
				continue
			}

			rules = append(rules, models.CascadeRule{
				Id:            uuid.New().String(),
				Name:          parent.Name + " -> " + child.Name,
				ParentFieldId: parent.Id,
				ChildFieldId:  child.Id,
				Enabled:       true,
				Order:         len(rules),
			})
			break
		}
	}

	return rules
}

func coversAll(options []models.FieldOption, wanted map[string]bool) bool {
	have := map[string]bool{}
	for _, opt := range options {
		have[opt.Id] = true
	}
	for id := range wanted {
		if !have[id] {
			return false
		}
	}
	return true
}

// activeRuleFor returns the highest-priority enabled rule driving fieldId.
func activeRuleFor(rules []models.CascadeRule, fieldId string) (models.CascadeRule, bool) {
	ordered := make([]models.CascadeRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for _, rule := range ordered {
		if rule.Enabled && rule.ChildFieldId == fieldId {
			return rule, true
		}
	}
	return models.CascadeRule{}, false
}

// OptionsForField resolves the valid option set for fieldId given the row's
// current values. Resolution order: view-local cascader binding, then global
// rules, then the field's static option list. An unset parent never hides all
// children: it falls back to the full static list.
func OptionsForField(
	fields []models.Field,
	rowValues map[string]any,
	fieldId string,
	rules []models.CascadeRule,
	components map[string]models.FieldComponentConfig,
) []models.FieldOption {
	field, ok := fieldById(fields, fieldId)
	if !ok {
		return nil
	}

	if cfg, ok := components[fieldId]; ok && cfg.Cascader != nil {
		parentValue := stringForm(rowValues[cfg.Cascader.ParentFieldId])
		names := cfg.Cascader.Mappings[parentValue]
		options := make([]models.FieldOption, 0, len(names))
		for _, name := range names {
			// Synthetic options: the binding maps to child names, not ids.
			options = append(options, models.FieldOption{Id: name, Name: name})
		}
		return options
	}

	if rule, ok := activeRuleFor(rules, fieldId); ok {
		parentValue := stringForm(rowValues[rule.ParentFieldId])
		if parentValue == "" {
			return field.Options
		}

		options := make([]models.FieldOption, 0, len(field.Options))
		for _, opt := range field.Options {
			if opt.ParentId == "" || opt.ParentId == parentValue {
				options = append(options, opt)
			}
		}
		return options
	}

	return field.Options
}

// BuildPatch computes the value patch for changing changedFieldId to
// nextValue. It always contains the changed key and adds a nil entry for
// every dependent field whose current value falls outside the newly valid
// option set, so a single edit invalidates stale children atomically.
func BuildPatch(
	fields []models.Field,
	rowValues map[string]any,
	changedFieldId string,
	nextValue any,
	rules []models.CascadeRule,
	components map[string]models.FieldComponentConfig,
) map[string]any {
	patch := map[string]any{changedFieldId: nextValue}

	next := map[string]any{}
	for k, v := range rowValues {
		next[k] = v
	}
	next[changedFieldId] = nextValue

	for _, rule := range rules {
		if !rule.Enabled || rule.ParentFieldId != changedFieldId {
			continue
		}
		active, ok := activeRuleFor(rules, rule.ChildFieldId)
		if !ok || active.Id != rule.Id {
			continue
		}
		if stale(fields, next, rule.ChildFieldId, rules, components, rowValues[rule.ChildFieldId]) {
			patch[rule.ChildFieldId] = nil
		}
	}

	for childId, cfg := range components {
		if cfg.Cascader == nil || cfg.Cascader.ParentFieldId != changedFieldId {
			continue
		}
		if stale(fields, next, childId, rules, components, rowValues[childId]) {
			patch[childId] = nil
		}
	}

	return patch
}

// stale reports whether current is no longer a member of the option set that
// would be valid after the patch applies.
func stale(
	fields []models.Field,
	nextValues map[string]any,
	childId string,
	rules []models.CascadeRule,
	components map[string]models.FieldComponentConfig,
	current any,
) bool {
	values := childValueList(current)
	if len(values) == 0 {
		return false
	}

	valid := map[string]bool{}
	for _, opt := range OptionsForField(fields, nextValues, childId, rules, components) {
		valid[opt.Id] = true
	}

	for _, v := range values {
		if !valid[v] {
			return true
		}
	}
	return false
}

func childValueList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := stringForm(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := stringForm(v); s != "" {
			return []string{s}
		}
		return nil
	}
}
