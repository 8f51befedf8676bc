// Package store is the client-side state engine for one table: its fields,
// views, the current record page with per-record snapshots, cascade rules,
// selection and pagination state. A Store is an explicit constructed
// container; UI layers receive an instance and subscribe to changes instead
// of importing ambient globals.
package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"gridbase/gridbase_go_view_engine_service/api"
	"gridbase/gridbase_go_view_engine_service/config"
	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/cascade"
	"gridbase/gridbase_go_view_engine_service/pkg/helper"
	"gridbase/gridbase_go_view_engine_service/pkg/kvstore"
	"gridbase/gridbase_go_view_engine_service/pkg/logger"
)

var (
	ErrLastView         = errors.New("a table must retain at least one view")
	ErrLastVisibleField = errors.New("at least one field must remain visible")
	ErrNoActiveView     = errors.New("no active view")
	ErrRecordNotFound   = errors.New("record not found")
	ErrFieldNotFound    = errors.New("field not found")
	ErrPermissionDenied = errors.New("action not permitted")
)

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient, auto-dismissing signal the UI renders as a toast.
type Notice struct {
	Level   NoticeLevel
	Message string
}

type focus struct {
	recordId string
	fieldId  string
}

type Store struct {
	cfg    config.Config
	log    logger.LoggerI
	client api.ClientI
	kv     kvstore.StoreI

	mu sync.Mutex

	tableId      string
	fields       []models.Field
	views        []models.View
	activeViewId string

	records      []models.Record
	snapshots    map[string]map[string]any
	totalRecords int

	page       int
	pageSize   int
	generation int64

	rules []models.CascadeRule

	selected    map[string]bool
	allSelected bool

	editing *focus
	// dirty marks record fields whose optimistic value failed to persist.
	dirty map[string]map[string]bool

	oplog       []models.OperationLogEntry
	buttonPerms *models.ButtonPermissionSet
	members     map[string]string

	saveDebounce *Debouncer

	subscribers []func()
	noticeFns   []func(Notice)
}

func New(cfg config.Config, log logger.LoggerI, client api.ClientI, kv kvstore.StoreI) *Store {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.PageSize > config.MaxPageSize {
		cfg.PageSize = config.MaxPageSize
	}

	s := &Store{
		cfg:          cfg,
		log:          log,
		client:       client,
		kv:           kv,
		snapshots:    map[string]map[string]any{},
		page:         1,
		pageSize:     cfg.PageSize,
		selected:     map[string]bool{},
		dirty:        map[string]map[string]bool{},
		members:      map[string]string{},
		saveDebounce: NewDebouncer(cfg.ViewSaveDebounce),
	}

	// Cascade rules changed by another tab re-sync into this instance.
	kv.Subscribe(config.CascadeRulesKey, s.onExternalRules)

	return s
}

// Close flushes any pending debounced view save.
func (s *Store) Close() {
	s.saveDebounce.Flush()
	s.saveDebounce.Stop()
}

// Subscribe registers a listener invoked after every state transition.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// OnNotice registers a listener for transient user-facing signals.
func (s *Store) OnNotice(fn func(Notice)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noticeFns = append(s.noticeFns, fn)
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := append([]func(){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func (s *Store) notice(level NoticeLevel, message string) {
	s.mu.Lock()
	fns := append([]func(Notice){}, s.noticeFns...)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(Notice{Level: level, Message: message})
	}
}

// LoadTable makes tableId the active table: fields, views, cascade rules and
// the first record page.
func (s *Store) LoadTable(ctx context.Context, tableId string) error {
	s.log.Info("---LoadTable--->>>", logger.String("tableId", tableId))

	fields, err := s.client.GetFields(ctx, tableId)
	if err != nil {
		s.log.Error("---LoadTable--->>>", logger.Error(err))
		return errors.Wrap(err, "GetFields")
	}
	views, err := s.client.GetViews(ctx, tableId)
	if err != nil {
		s.log.Error("---LoadTable--->>>", logger.Error(err))
		return errors.Wrap(err, "GetViews")
	}

	s.mu.Lock()
	s.tableId = tableId
	s.fields = fields
	s.views = views
	for i := range s.views {
		s.views[i].Config = helper.NormalizeViewConfig(s.views[i].Config, fields)
	}
	s.activeViewId = fallbackViewId(s.views)
	s.page = 1
	s.records = nil
	s.snapshots = map[string]map[string]any{}
	s.totalRecords = 0
	s.selected = map[string]bool{}
	s.allSelected = false
	s.editing = nil
	s.dirty = map[string]map[string]bool{}
	s.mu.Unlock()

	if err := s.loadRules(ctx); err != nil {
		s.log.Error("---LoadTable--->>> rules", logger.Error(err))
	}
	s.loadOperationLog(ctx)

	if err := s.LoadRecords(ctx); err != nil {
		return err
	}

	s.notify()
	return nil
}

// fallbackViewId picks the deterministic default view: first enabled by
// Order, else first by Order.
func fallbackViewId(views []models.View) string {
	if len(views) == 0 {
		return ""
	}

	ordered := make([]models.View, len(views))
	copy(ordered, views)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Config.Order < ordered[j].Config.Order })

	for _, view := range ordered {
		if view.Config.IsEnabled {
			return view.Id
		}
	}
	return ordered[0].Id
}

func (s *Store) TableId() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tableId
}

func (s *Store) Fields() []models.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Field{}, s.fields...)
}

func (s *Store) Records() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Record{}, s.records...)
}

func (s *Store) Record(recordId string) (models.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Id == recordId {
			return record, true
		}
	}
	return models.Record{}, false
}

// Snapshot returns the last known-committed values of a record.
func (s *Store) Snapshot(recordId string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshots[recordId]
	out := make(map[string]any, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	return out
}

func (s *Store) TotalRecords() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalRecords
}

// Dirty lists the fields of a record whose optimistic value failed to save.
func (s *Store) Dirty(recordId string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.dirty[recordId]))
	for key := range s.dirty[recordId] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SetEditing marks the cell currently focused for editing.
func (s *Store) SetEditing(recordId, fieldId string) {
	s.mu.Lock()
	s.editing = &focus{recordId: recordId, fieldId: fieldId}
	s.mu.Unlock()
	s.notify()
}

// Editing returns the focused cell, if any.
func (s *Store) Editing() (recordId, fieldId string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editing == nil {
		return "", "", false
	}
	return s.editing.recordId, s.editing.fieldId, true
}

func (s *Store) fieldById(id string) (models.Field, bool) {
	for _, f := range s.fields {
		if f.Id == id {
			return f, true
		}
	}
	return models.Field{}, false
}

// OptionsForCell resolves the valid option set for a cell through the
// view-local component binding or the global cascade rules.
func (s *Store) OptionsForCell(recordId, fieldId string) []models.FieldOption {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rowValues map[string]any
	for _, record := range s.records {
		if record.Id == recordId {
			rowValues = record.Values
			break
		}
	}
	return cascade.OptionsForField(s.fields, rowValues, fieldId, s.rules, s.activeComponentsLocked())
}

// OptionsForValues resolves options against caller-held row values, for
// create modals and record drawers where no stored record exists yet.
func (s *Store) OptionsForValues(rowValues map[string]any, fieldId string) []models.FieldOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cascade.OptionsForField(s.fields, rowValues, fieldId, s.rules, s.activeComponentsLocked())
}

func (s *Store) activeComponentsLocked() map[string]models.FieldComponentConfig {
	for _, view := range s.views {
		if view.Id == s.activeViewId {
			return view.Config.Components
		}
	}
	return nil
}

// --- cascade rule persistence ---

func (s *Store) Rules() []models.CascadeRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CascadeRule{}, s.rules...)
}

// SetRules replaces the rule set and persists it.
func (s *Store) SetRules(ctx context.Context, rules []models.CascadeRule) error {
	s.mu.Lock()
	s.rules = append([]models.CascadeRule{}, rules...)
	s.mu.Unlock()

	if err := s.persistRules(ctx); err != nil {
		return err
	}
	s.notify()
	return nil
}

// loadRules reads the cached rule set; on first run it bootstraps rules from
// the field metadata and persists them. Stored rules are never regenerated.
func (s *Store) loadRules(ctx context.Context) error {
	data, found, err := s.kv.Get(ctx, config.CascadeRulesKey)
	if err != nil {
		return errors.Wrap(err, "kv.Get")
	}

	if found {
		var rules []models.CascadeRule
		if err := json.Unmarshal(data, &rules); err != nil {
			return errors.Wrap(err, "json.Unmarshal rules")
		}
		s.mu.Lock()
		s.rules = rules
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.rules = cascade.InferRules(s.fields)
	s.mu.Unlock()
	return s.persistRules(ctx)
}

func (s *Store) persistRules(ctx context.Context) error {
	s.mu.Lock()
	data, err := json.Marshal(s.rules)
	s.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "json.Marshal rules")
	}
	return errors.Wrap(s.kv.Set(ctx, config.CascadeRulesKey, data), "kv.Set")
}

func (s *Store) onExternalRules(data []byte) {
	var rules []models.CascadeRule
	if err := json.Unmarshal(data, &rules); err != nil {
		s.log.Error("---ExternalRules--->>>", logger.Error(err))
		return
	}

	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
	s.notify()
}
