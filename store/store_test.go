package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaswdr/faker/v2"
	"github.com/stretchr/testify/assert"

	"gridbase/gridbase_go_view_engine_service/api"
	"gridbase/gridbase_go_view_engine_service/apiserver"
	"gridbase/gridbase_go_view_engine_service/config"
	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/kvstore"
	"gridbase/gridbase_go_view_engine_service/pkg/logger"
	"gridbase/gridbase_go_view_engine_service/store"
)

const (
	testTableId = "tbl_test"

	fldProvince = "fld_province"
	fldCity     = "fld_city"
	fldName     = "fld_name"
	fldScore    = "fld_score"
)

var (
	log      logger.LoggerI
	fakeData faker.Faker
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	log = logger.NewLogger("view_engine_test", logger.LevelError)
	fakeData = faker.New()

	code := m.Run()
	logger.Cleanup(log)
	os.Exit(code)
}

type env struct {
	srv   *apiserver.Server
	ts    *httptest.Server
	kv    kvstore.StoreI
	store *store.Store
	cfg   config.Config

	requests int64

	mu      sync.Mutex
	notices []store.Notice
}

func newEnv(t *testing.T) *env {
	e := &env{
		srv: apiserver.New(log),
		kv:  kvstore.NewMemory(),
		cfg: config.Config{
			ServiceName:       "view_engine_test",
			PageSize:          25,
			ViewSaveDebounce:  time.Hour, // flushed explicitly in tests
			ImportChunkSize:   10,
			ImportConcurrency: 4,
			RecordCacheLimit:  1000,
			OperationLogLimit: 50,
		},
	}

	engine := e.srv.Engine()
	e.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&e.requests, 1)
		engine.ServeHTTP(w, r)
	}))

	e.store = store.New(e.cfg, log, api.NewClientWithHTTP(e.ts.URL, e.ts.Client()), e.kv)
	e.store.OnNotice(func(n store.Notice) {
		e.mu.Lock()
		e.notices = append(e.notices, n)
		e.mu.Unlock()
	})

	t.Cleanup(func() {
		e.store.Close()
		e.ts.Close()
		e.kv.Close()
	})
	return e
}

// newStoreClient is a raw API handle for asserting server-side state.
func newStoreClient(e *env) api.ClientI {
	return api.NewClientWithHTTP(e.ts.URL, e.ts.Client())
}

func newStoreWithConfig(t *testing.T, e *env, cfg config.Config) *store.Store {
	st := store.New(cfg, log, api.NewClientWithHTTP(e.ts.URL, e.ts.Client()), e.kv)
	t.Cleanup(st.Close)
	return st
}

func (e *env) requestCount() int64 {
	return atomic.LoadInt64(&e.requests)
}

func (e *env) lastNotice() (store.Notice, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.notices) == 0 {
		return store.Notice{}, false
	}
	return e.notices[len(e.notices)-1], true
}

func testFields() []models.Field {
	return []models.Field{
		{
			Id:      fldProvince,
			TableId: testTableId,
			Name:    "province",
			Type:    models.FieldTypeSingleSelect,
			Options: []models.FieldOption{
				{Id: "北京", Name: "北京"},
				{Id: "上海", Name: "上海"},
			},
		},
		{
			Id:      fldCity,
			TableId: testTableId,
			Name:    "city",
			Type:    models.FieldTypeSingleSelect,
			Options: []models.FieldOption{
				{Id: "朝阳", Name: "朝阳", ParentId: "北京"},
				{Id: "黄浦", Name: "黄浦", ParentId: "上海"},
			},
		},
		{Id: fldName, TableId: testTableId, Name: "name", Type: models.FieldTypeText},
		{Id: fldScore, TableId: testTableId, Name: "score", Type: models.FieldTypeNumber},
	}
}

func testViews(count int) []models.View {
	views := make([]models.View, 0, count)
	for i := 0; i < count; i++ {
		cfg := models.DefaultViewConfig()
		cfg.Order = i
		views = append(views, models.View{
			Id:     fmt.Sprintf("viw_%d", i),
			Name:   fmt.Sprintf("View %d", i),
			Type:   models.ViewTypeGrid,
			Config: cfg,
		})
	}
	return views
}

func testRecords(count int) []models.Record {
	records := make([]models.Record, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, models.Record{
			Id:      fmt.Sprintf("rec_%03d", i),
			TableId: testTableId,
			Values: map[string]any{
				fldName:  fakeData.Person().Name(),
				fldScore: float64(i),
			},
		})
	}
	return records
}

// seedAndLoad installs the standard fixture and loads it into the store.
func seedAndLoad(t *testing.T, e *env, recordCount int) {
	e.srv.SeedTable(testTableId, testFields(), testViews(2), testRecords(recordCount))
	assert.NoError(t, e.store.LoadTable(context.Background(), testTableId))
}

func TestLoadTable(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 5)

	assert.Equal(t, testTableId, e.store.TableId())
	assert.Len(t, e.store.Fields(), 4)
	assert.Len(t, e.store.Views(), 2)
	assert.Len(t, e.store.Records(), 5)
	assert.Equal(t, 5, e.store.TotalRecords())

	active, ok := e.store.ActiveView()
	assert.True(t, ok)
	assert.Equal(t, "viw_0", active.Id)
}

func TestLoadTableFallsBackToFirstEnabledView(t *testing.T) {
	e := newEnv(t)
	views := testViews(3)
	views[0].Config.IsEnabled = false
	e.srv.SeedTable(testTableId, testFields(), views, testRecords(1))

	assert.NoError(t, e.store.LoadTable(context.Background(), testTableId))

	active, ok := e.store.ActiveView()
	assert.True(t, ok)
	assert.Equal(t, "viw_1", active.Id)
}

func TestLoadTableBootstrapsCascadeRules(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 1)

	rules := e.store.Rules()
	assert.Len(t, rules, 1)
	assert.Equal(t, fldProvince, rules[0].ParentFieldId)
	assert.Equal(t, fldCity, rules[0].ChildFieldId)

	// Bootstrap persists; a fresh instance on the same kv loads the stored
	// set instead of regenerating.
	data, found, err := e.kv.Get(context.Background(), config.CascadeRulesKey)
	assert.NoError(t, err)
	assert.True(t, found)

	var stored []models.CascadeRule
	assert.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, rules, stored)

	second := store.New(e.cfg, log, api.NewClientWithHTTP(e.ts.URL, e.ts.Client()), e.kv)
	defer second.Close()
	assert.NoError(t, second.LoadTable(context.Background(), testTableId))
	assert.Equal(t, rules, second.Rules())
}

func TestStoredRulesAreNeverRegenerated(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 1)

	assert.NoError(t, e.store.SetRules(context.Background(), nil))
	assert.Empty(t, e.store.Rules())

	// Reload sees the stored empty set, not a re-inferred one.
	assert.NoError(t, e.store.LoadTable(context.Background(), testTableId))
	assert.Empty(t, e.store.Rules())
}

func TestExternalRuleChangeSyncsIn(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 1)

	replaced := []models.CascadeRule{{
		Id:            "rule_ext",
		ParentFieldId: fldProvince,
		ChildFieldId:  fldCity,
		Enabled:       false,
		Order:         0,
	}}
	data, err := json.Marshal(replaced)
	assert.NoError(t, err)

	e.kv.(kvstore.ExternalChanger).SimulateExternalChange(config.CascadeRulesKey, data)

	assert.Equal(t, replaced, e.store.Rules())
}

func TestOptionsForCellUsesActiveRules(t *testing.T) {
	e := newEnv(t)
	e.srv.SeedTable(testTableId, testFields(), testViews(1), []models.Record{{
		Id:      "rec_a",
		TableId: testTableId,
		Values:  map[string]any{fldProvince: "北京"},
	}})
	assert.NoError(t, e.store.LoadTable(context.Background(), testTableId))

	options := e.store.OptionsForCell("rec_a", fldCity)
	assert.Len(t, options, 1)
	assert.Equal(t, "朝阳", options[0].Id)
}

func TestOptionsForValuesForDraftRows(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 0)

	options := e.store.OptionsForValues(map[string]any{fldProvince: "上海"}, fldCity)
	assert.Len(t, options, 1)
	assert.Equal(t, "黄浦", options[0].Id)

	// No parent chosen yet: the full list, never an empty one.
	options = e.store.OptionsForValues(map[string]any{}, fldCity)
	assert.Len(t, options, 2)
}

func TestEditingFocus(t *testing.T) {
	e := newEnv(t)
	seedAndLoad(t, e, 1)

	e.store.SetEditing("rec_000", fldName)
	recordId, fieldId, ok := e.store.Editing()
	assert.True(t, ok)
	assert.Equal(t, "rec_000", recordId)
	assert.Equal(t, fldName, fieldId)
}
