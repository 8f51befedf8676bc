package helper

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"gridbase/gridbase_go_view_engine_service/models"
)

// ParseRecordRows reads the first sheet of an xlsx file into record value
// maps keyed by field id. The header row matches fields by name; unknown
// columns are skipped. Cell text is coerced to the field's value shape.
func ParseRecordRows(path string, fields []models.Field) ([]map[string]any, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "excelize.OpenFile")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "GetRows")
	}
	if len(rows) == 0 {
		return nil, errors.New("empty sheet")
	}

	fieldsByName := map[string]models.Field{}
	for _, field := range fields {
		fieldsByName[field.Name] = field
	}

	columns := map[int]models.Field{}
	for i, header := range rows[0] {
		if field, ok := fieldsByName[strings.TrimSpace(header)]; ok {
			columns[i] = field
		}
	}
	if len(columns) == 0 {
		return nil, errors.New("header row matches no fields")
	}

	fullData := []map[string]any{}

	for c, row := range rows {
		if c == 0 {
			continue
		}

		body := make(map[string]any)
		for i, cell := range row {
			field, ok := columns[i]
			if !ok || strings.TrimSpace(cell) == "" {
				continue
			}
			body[field.Id] = coerceCell(field, strings.TrimSpace(cell))
		}
		if len(body) > 0 {
			fullData = append(fullData, body)
		}
	}

	return fullData, nil
}

func coerceCell(field models.Field, cell string) any {
	switch field.Type {
	case models.FieldTypeNumber:
		return cast.ToFloat64(cell)

	case models.FieldTypeCheckbox:
		return cast.ToBool(cell)

	case models.FieldTypeSingleSelect:
		return optionIdByName(field, cell)

	case models.FieldTypeMultiSelect:
		names := strings.Split(cell, ",")
		ids := make([]string, 0, len(names))
		for _, name := range names {
			if id := optionIdByName(field, strings.TrimSpace(name)); id != "" {
				ids = append(ids, id)
			}
		}
		return ids

	case models.FieldTypeAttachment, models.FieldTypeImage:
		return []string{cell}

	default:
		return cell
	}
}

// optionIdByName accepts either the option's display name or its raw id.
func optionIdByName(field models.Field, name string) string {
	for _, opt := range field.Options {
		if opt.Name == name || opt.Id == name {
			return opt.Id
		}
	}
	return ""
}
