package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/store"
)

func TestCreateFieldJoinsEveryView(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 2)

	field, err := e.store.CreateField(context.Background(), models.CreateFieldRequest{
		Name: "notes",
		Type: models.FieldTypeText,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, field.Id)

	assert.Len(t, e.store.Fields(), 5)
	for _, view := range e.store.Views() {
		assert.Contains(t, view.Config.FieldOrderIds, field.Id)
	}
}

func TestCreateFieldRejectsUnknownType(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 0)
	before := e.requestCount()

	_, err := e.store.CreateField(context.Background(), models.CreateFieldRequest{
		Name: "weird",
		Type: models.FieldType("hologram"),
	})
	assert.Error(t, err)
	assert.Equal(t, before, e.requestCount())
}

func TestDeleteFieldPurgesEverywhere(t *testing.T) {
	e := newEnv(t)
	e.srv.SeedTable(testTableId, testFields(), testViews(2), []models.Record{{
		Id:      "rec_a",
		TableId: testTableId,
		Values:  map[string]any{fldProvince: "上海", fldCity: "黄浦", fldName: "row"},
	}})
	assert.NoError(t, e.store.LoadTable(context.Background(), testTableId))

	assert.NoError(t, e.store.UpdateViewConfig(models.ViewConfigPatch{
		HiddenFieldIds: []string{fldCity},
		ColumnWidths:   map[string]int{fldCity: 90},
	}))
	e.store.SetEditing("rec_a", fldCity)

	assert.NoError(t, e.store.DeleteField(context.Background(), fldCity))

	assert.Len(t, e.store.Fields(), 3)
	record, _ := e.store.Record("rec_a")
	assert.NotContains(t, record.Values, fldCity)
	assert.NotContains(t, e.store.Snapshot("rec_a"), fldCity)

	for _, view := range e.store.Views() {
		assert.NotContains(t, view.Config.FieldOrderIds, fldCity)
		assert.NotContains(t, view.Config.HiddenFieldIds, fldCity)
		assert.NotContains(t, view.Config.ColumnWidths, fldCity)
	}

	// Rules referencing the field are gone, and so is the editing focus.
	for _, rule := range e.store.Rules() {
		assert.NotEqual(t, fldCity, rule.ChildFieldId)
		assert.NotEqual(t, fldCity, rule.ParentFieldId)
	}
	_, _, editing := e.store.Editing()
	assert.False(t, editing)
}

func TestDeleteFieldUnknown(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 0)

	err := e.store.DeleteField(context.Background(), "fld_missing")
	assert.ErrorIs(t, err, store.ErrFieldNotFound)
}
