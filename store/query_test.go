package store_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gridbase/gridbase_go_view_engine_service/api"
	"gridbase/gridbase_go_view_engine_service/apiserver"
	"gridbase/gridbase_go_view_engine_service/config"
	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/kvstore"
	"gridbase/gridbase_go_view_engine_service/store"
)

func TestPaginationTotals(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 47) // pageSize 25

	assert.Equal(t, 47, e.store.TotalRecords())
	assert.Equal(t, 2, e.store.TotalPages())
	assert.Equal(t, 1, e.store.Page())
	assert.Len(t, e.store.Records(), 25)

	assert.NoError(t, e.store.SetPage(context.Background(), 2))
	assert.Equal(t, 2, e.store.Page())
	assert.Len(t, e.store.Records(), 22)
}

func TestSetPageClampsOutOfRange(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 47)

	assert.NoError(t, e.store.SetPage(context.Background(), 9))
	assert.Equal(t, 2, e.store.Page())

	assert.NoError(t, e.store.SetPage(context.Background(), 0))
	assert.Equal(t, 1, e.store.Page())
}

func TestFilterChangeResetsToFirstPage(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 47)

	assert.NoError(t, e.store.SetPage(context.Background(), 2))

	filters := []models.FilterCondition{{FieldId: fldScore, Op: "lt", Value: 10}}
	assert.NoError(t, e.store.SetFilters(context.Background(), filters, nil, models.FilterLogicAnd))

	assert.Equal(t, 1, e.store.Page())
	assert.Equal(t, 10, e.store.TotalRecords())
	assert.Len(t, e.store.Records(), 10)
}

func TestShrunkenResultSetClampsCurrentPage(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 47)
	assert.NoError(t, e.store.SetPage(context.Background(), 2))

	// Another client deletes enough rows that page 2 no longer exists.
	raw := newStoreClient(e)
	for i := 10; i < 47; i++ {
		assert.NoError(t, raw.DeleteRecord(context.Background(), fmt.Sprintf("rec_%03d", i)))
	}

	assert.NoError(t, e.store.LoadRecords(context.Background()))

	assert.Equal(t, 1, e.store.Page())
	assert.Equal(t, 10, e.store.TotalRecords())
	assert.Len(t, e.store.Records(), 10)
}

func TestFilterPatchThroughConfigResetsPage(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 47)
	assert.NoError(t, e.store.SetPage(context.Background(), 2))

	assert.NoError(t, e.store.UpdateViewConfig(models.ViewConfigPatch{
		Filters: []models.FilterCondition{{FieldId: fldScore, Op: "lt", Value: 10}},
	}))
	assert.Equal(t, 1, e.store.Page())

	assert.NoError(t, e.store.LoadRecords(context.Background()))
	assert.Len(t, e.store.Records(), 10)

	// Width-only patches keep the page position.
	assert.NoError(t, e.store.SetPage(context.Background(), 1))
	assert.NoError(t, e.store.UpdateViewConfig(models.ViewConfigPatch{
		ColumnWidths: map[string]int{fldName: 140},
	}))
	assert.Equal(t, 1, e.store.Page())
	e.store.FlushPendingSave()
}

// TestStaleQueryResponseDiscarded races a slow query against a newer one and
// asserts the slow response never lands: one request is trapped at the
// transport, a second reload completes while it is held, and the held
// response carries a payload that must not become visible.
func TestStaleQueryResponseDiscarded(t *testing.T) {
	srv := apiserver.New(log)
	engine := srv.Engine()

	var (
		mu   sync.Mutex
		trap bool
	)
	arrived := make(chan struct{})
	release := make(chan struct{})

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		trapped := trap && strings.HasSuffix(r.URL.Path, "/records/query")
		if trapped {
			trap = false
		}
		mu.Unlock()

		if trapped {
			close(arrived)
			<-release
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":[{"id":"rec_stale","tableId":"tbl_test","values":{}}],"totalCount":999}`))
			return
		}
		engine.ServeHTTP(w, r)
	}))
	defer ts.Close()

	kv := kvstore.NewMemory()
	defer kv.Close()
	st := store.New(config.Config{
		ServiceName:       "view_engine_test",
		PageSize:          25,
		ViewSaveDebounce:  time.Hour,
		OperationLogLimit: 50,
	}, log, api.NewClientWithHTTP(ts.URL, ts.Client()), kv)
	defer st.Close()

	srv.SeedTable(testTableId, testFields(), testViews(1), testRecords(5))
	assert.NoError(t, st.LoadTable(context.Background(), testTableId))

	mu.Lock()
	trap = true
	mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- st.LoadRecords(context.Background()) }()

	// The slow query is in flight; a newer reload supersedes it.
	<-arrived
	assert.NoError(t, st.LoadRecords(context.Background()))
	close(release)
	assert.NoError(t, <-done)

	assert.Equal(t, 5, st.TotalRecords())
	records := st.Records()
	assert.Len(t, records, 5)
	for _, record := range records {
		assert.NotEqual(t, "rec_stale", record.Id)
	}
}

func TestSetPageSizeResetsToFirstPage(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 47)
	assert.NoError(t, e.store.SetPage(context.Background(), 2))

	assert.NoError(t, e.store.SetPageSize(context.Background(), 10))
	assert.Equal(t, 1, e.store.Page())
	assert.Equal(t, 5, e.store.TotalPages())
	assert.Len(t, e.store.Records(), 10)
}

func TestSetPageSizeBounds(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 5)

	assert.Error(t, e.store.SetPageSize(context.Background(), 0))
	assert.Error(t, e.store.SetPageSize(context.Background(), 501))
	assert.NoError(t, e.store.SetPageSize(context.Background(), 500))
}

func TestSetFiltersRejectsUnknownLogic(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 5)

	err := e.store.SetFilters(context.Background(), nil, nil, models.FilterLogic("xor"))
	assert.Error(t, err)
}

func TestSortAppliedServerSide(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 5)

	sorts := []models.SortCondition{{FieldId: fldScore, Direction: "desc"}}
	assert.NoError(t, e.store.SetFilters(context.Background(), nil, sorts, models.FilterLogicAnd))

	records := e.store.Records()
	assert.Len(t, records, 5)
	assert.Equal(t, float64(4), records[0].Values[fldScore])
	assert.Equal(t, float64(0), records[4].Values[fldScore])
}

func TestOrFilterLogic(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 10)

	filters := []models.FilterCondition{
		{FieldId: fldScore, Op: "eq", Value: 2},
		{FieldId: fldScore, Op: "eq", Value: 7},
	}
	assert.NoError(t, e.store.SetFilters(context.Background(), filters, nil, models.FilterLogicOr))

	assert.Equal(t, 2, e.store.TotalRecords())
}

func TestEmptyResultStillOnePage(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 0)

	assert.Equal(t, 0, e.store.TotalRecords())
	assert.Equal(t, 1, e.store.TotalPages())
	assert.Equal(t, 1, e.store.Page())
}
