package helper_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/helper"
)

func importFields() []models.Field {
	return []models.Field{
		{Id: "fld_name", Name: "name", Type: models.FieldTypeText},
		{Id: "fld_score", Name: "score", Type: models.FieldTypeNumber},
		{Id: "fld_done", Name: "done", Type: models.FieldTypeCheckbox},
		{
			Id:   "fld_status",
			Name: "status",
			Type: models.FieldTypeSingleSelect,
			Options: []models.FieldOption{
				{Id: "opt_open", Name: "open"},
				{Id: "opt_closed", Name: "closed"},
			},
		},
	}
}

func writeSheet(t *testing.T, rows [][]any) string {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		assert.NoError(t, err)
		assert.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "import.xlsx")
	assert.NoError(t, f.SaveAs(path))
	assert.NoError(t, f.Close())
	return path
}

func TestParseRecordRows(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"name", "score", "done", "status", "ignored"},
		{"alpha", "3", "true", "open", "junk"},
		{"beta", "4.5", "false", "opt_closed", ""},
	})

	rows, err := helper.ParseRecordRows(path, importFields())
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Equal(t, "alpha", rows[0]["fld_name"])
	assert.Equal(t, float64(3), rows[0]["fld_score"])
	assert.Equal(t, true, rows[0]["fld_done"])
	assert.Equal(t, "opt_open", rows[0]["fld_status"])
	assert.NotContains(t, rows[0], "ignored")

	// Option ids are accepted alongside display names.
	assert.Equal(t, "opt_closed", rows[1]["fld_status"])
}

func TestParseRecordRowsSkipsBlankCells(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"name", "score"},
		{"gamma", ""},
		{"", ""},
	})

	rows, err := helper.ParseRecordRows(path, importFields())
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "gamma", rows[0]["fld_name"])
	assert.NotContains(t, rows[0], "fld_score")
}

func TestParseRecordRowsHeaderMismatch(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"unrelated", "columns"},
		{"a", "b"},
	})

	_, err := helper.ParseRecordRows(path, importFields())
	assert.Error(t, err)
}
