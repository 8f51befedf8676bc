package helper

import (
	"time"

	"github.com/pkg/errors"

	"gridbase/gridbase_go_view_engine_service/models"
)

// ValidateValue type-checks a cell value against its field at the patch
// boundary, so a type-mismatched write fails before reaching the wire.
// nil is always accepted (clearing a cell).
func ValidateValue(field models.Field, value any) error {
	if value == nil {
		return nil
	}

	switch field.Type {
	case models.FieldTypeText:
		if _, ok := value.(string); !ok {
			return errors.Errorf("field %s expects a string", field.Name)
		}

	case models.FieldTypeNumber:
		switch value.(type) {
		case int, int32, int64, float32, float64:
		default:
			return errors.Errorf("field %s expects a number", field.Name)
		}

	case models.FieldTypeDate:
		s, ok := value.(string)
		if !ok {
			return errors.Errorf("field %s expects a date string", field.Name)
		}
		if err := validateDate(s); err != nil {
			return errors.Wrapf(err, "field %s has a malformed date", field.Name)
		}

	case models.FieldTypeSingleSelect:
		s, ok := value.(string)
		if !ok {
			return errors.Errorf("field %s expects a single option id", field.Name)
		}
		if len(field.Options) == 0 {
			return errors.Errorf("field %s has no options configured", field.Name)
		}
		if _, ok := field.Option(s); !ok {
			return errors.Errorf("field %s has no option %q", field.Name, s)
		}

	case models.FieldTypeMultiSelect:
		ids, err := stringSlice(value)
		if err != nil {
			return errors.Wrapf(err, "field %s expects option id array", field.Name)
		}
		if len(field.Options) == 0 {
			return errors.Errorf("field %s has no options configured", field.Name)
		}
		for _, id := range ids {
			if _, ok := field.Option(id); !ok {
				return errors.Errorf("field %s has no option %q", field.Name, id)
			}
		}

	case models.FieldTypeCheckbox:
		if _, ok := value.(bool); !ok {
			return errors.Errorf("field %s expects a boolean", field.Name)
		}

	case models.FieldTypeAttachment, models.FieldTypeImage:
		// A bare string is accepted and treated as a one-element list.
		if _, ok := value.(string); ok {
			return nil
		}
		if _, err := stringSlice(value); err != nil {
			return errors.Wrapf(err, "field %s expects file URL array", field.Name)
		}

	case models.FieldTypeMember:
		if _, ok := value.(string); !ok {
			return errors.Errorf("field %s expects a member id", field.Name)
		}

	default:
		return errors.Errorf("unsupported field type %s", field.Type)
	}

	return nil
}

func validateDate(s string) error {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
	var err error
	for _, layout := range layouts {
		if _, err = time.Parse(layout, s); err == nil {
			return nil
		}
	}
	return err
}

func stringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("array items must be strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.New("value must be a string array")
	}
}
