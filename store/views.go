package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/helper"
	"gridbase/gridbase_go_view_engine_service/pkg/logger"
)

func (s *Store) Views() []models.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.View{}, s.views...)
}

func (s *Store) ActiveView() (models.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeViewLocked()
}

func (s *Store) activeViewLocked() (models.View, bool) {
	for _, view := range s.views {
		if view.Id == s.activeViewId {
			return view, true
		}
	}
	return models.View{}, false
}

func (s *Store) activeViewRefLocked() *models.View {
	for i := range s.views {
		if s.views[i].Id == s.activeViewId {
			return &s.views[i]
		}
	}
	return nil
}

// SetActiveView switches the active view, resets pagination and reloads
// records under the new view's filters.
func (s *Store) SetActiveView(ctx context.Context, viewId string) error {
	s.mu.Lock()
	found := false
	for _, view := range s.views {
		if view.Id == viewId {
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return errors.Errorf("view %s not found", viewId)
	}
	s.activeViewId = viewId
	s.page = 1
	s.selected = map[string]bool{}
	s.allSelected = false
	s.mu.Unlock()

	s.notify()
	return s.LoadRecords(ctx)
}

// UpdateViewConfig merges a partial update into the active view's config,
// re-derives invariants and schedules one debounced persistence call. Bursty
// edits such as column-resize drags collapse into a single server write.
func (s *Store) UpdateViewConfig(patch models.ViewConfigPatch) error {
	s.mu.Lock()

	view := s.activeViewRefLocked()
	if view == nil {
		s.mu.Unlock()
		return ErrNoActiveView
	}

	merged := helper.MergeConfigPatch(view.Config, patch)
	merged = helper.NormalizeViewConfig(merged, s.fields)
	if len(helper.VisibleFieldIds(merged)) == 0 {
		s.mu.Unlock()
		s.notice(NoticeWarning, "at least one field must remain visible")
		return ErrLastVisibleField
	}

	view.Config = merged
	viewId := view.Id
	cfg := merged
	// A query-shaped change invalidates the current page position.
	if patch.Filters != nil || patch.Sorts != nil || patch.FilterLogic != nil {
		s.page = 1
	}
	s.mu.Unlock()

	s.notify()
	s.saveDebounce.Trigger(func() { s.persistViewConfig(viewId, cfg) })
	return nil
}

func (s *Store) persistViewConfig(viewId string, cfg models.ViewConfig) {
	// The debounced save races deliberately: no de-duplication exists if a
	// save is mid-flight when another edit lands; the server is
	// last-write-wins.
	s.mu.Lock()
	if view := s.activeViewRefLocked(); view != nil && view.Id == viewId {
		cfg = view.Config
	}
	s.mu.Unlock()

	if _, err := s.client.PatchView(context.Background(), viewId, models.PatchViewRequest{Config: &cfg}); err != nil {
		s.log.Error("---SaveViewConfig--->>>", logger.Error(err))
		s.notice(NoticeError, "failed to save view settings")
	}
}

// FlushPendingSave forces the queued debounced save to run now.
func (s *Store) FlushPendingSave() {
	s.saveDebounce.Flush()
}

// HideField hides a field in the active view; hiding un-freezes it. Hiding
// the last visible field is rejected with the config unchanged.
func (s *Store) HideField(fieldId string) error {
	view, ok := s.ActiveView()
	if !ok {
		return ErrNoActiveView
	}
	return s.UpdateViewConfig(models.ViewConfigPatch{
		HiddenFieldIds: append(append([]string{}, view.Config.HiddenFieldIds...), fieldId),
	})
}

// ShowField re-shows a hidden field in the active view.
func (s *Store) ShowField(fieldId string) error {
	view, ok := s.ActiveView()
	if !ok {
		return ErrNoActiveView
	}

	hidden := make([]string, 0, len(view.Config.HiddenFieldIds))
	for _, id := range view.Config.HiddenFieldIds {
		if id != fieldId {
			hidden = append(hidden, id)
		}
	}
	return s.UpdateViewConfig(models.ViewConfigPatch{HiddenFieldIds: hidden})
}

// --- structural mutators: immediate, awaited requests ---

// CreateView creates a view on the active table and appends it locally.
func (s *Store) CreateView(ctx context.Context, name string, viewType models.ViewType) (models.View, error) {
	s.mu.Lock()
	tableId := s.tableId
	s.mu.Unlock()

	s.log.Info("---CreateView--->>>", logger.String("name", name))

	view, err := s.client.CreateView(ctx, tableId, models.CreateViewRequest{Name: name, Type: viewType})
	if err != nil {
		s.log.Error("---CreateView--->>>", logger.Error(err))
		s.notice(NoticeError, "failed to create view")
		return models.View{}, errors.Wrap(err, "CreateView")
	}

	s.mu.Lock()
	view.Config = helper.NormalizeViewConfig(view.Config, s.fields)
	s.views = append(s.views, view)
	s.mu.Unlock()

	s.notify()
	return view, nil
}

// RenameView renames a view and mirrors the server response locally.
func (s *Store) RenameView(ctx context.Context, viewId, name string) error {
	updated, err := s.client.PatchView(ctx, viewId, models.PatchViewRequest{Name: &name})
	if err != nil {
		s.notice(NoticeError, "failed to rename view")
		return errors.Wrap(err, "PatchView")
	}

	s.mu.Lock()
	for i := range s.views {
		if s.views[i].Id == viewId {
			s.views[i].Name = updated.Name
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// SetViewEnabled toggles a view's enabled flag.
func (s *Store) SetViewEnabled(ctx context.Context, viewId string, enabled bool) error {
	s.mu.Lock()
	var cfg models.ViewConfig
	found := false
	for i := range s.views {
		if s.views[i].Id == viewId {
			cfg = s.views[i].Config
			cfg.IsEnabled = enabled
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return errors.Errorf("view %s not found", viewId)
	}

	if _, err := s.client.PatchView(ctx, viewId, models.PatchViewRequest{Config: &cfg}); err != nil {
		s.notice(NoticeError, "failed to update view")
		return errors.Wrap(err, "PatchView")
	}

	s.mu.Lock()
	for i := range s.views {
		if s.views[i].Id == viewId {
			s.views[i].Config.IsEnabled = enabled
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// ReorderViews swaps the order of two views via two concurrent requests.
func (s *Store) ReorderViews(ctx context.Context, aId, bId string) error {
	s.mu.Lock()
	var aCfg, bCfg models.ViewConfig
	aFound, bFound := false, false
	for _, view := range s.views {
		switch view.Id {
		case aId:
			aCfg = view.Config
			aFound = true
		case bId:
			bCfg = view.Config
			bFound = true
		}
	}
	s.mu.Unlock()

	if !aFound || !bFound {
		return errors.New("both views must exist to reorder")
	}

	aCfg.Order, bCfg.Order = bCfg.Order, aCfg.Order

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.client.PatchView(gctx, aId, models.PatchViewRequest{Config: &aCfg})
		return err
	})
	g.Go(func() error {
		_, err := s.client.PatchView(gctx, bId, models.PatchViewRequest{Config: &bCfg})
		return err
	})
	if err := g.Wait(); err != nil {
		s.notice(NoticeError, "failed to reorder views")
		return errors.Wrap(err, "ReorderViews")
	}

	s.mu.Lock()
	for i := range s.views {
		switch s.views[i].Id {
		case aId:
			s.views[i].Config.Order = aCfg.Order
		case bId:
			s.views[i].Config.Order = bCfg.Order
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// DeleteView deletes a view. Deleting the table's last view is rejected
// before any network call. After a successful delete the active view falls
// back to the first enabled view, else the first by order.
func (s *Store) DeleteView(ctx context.Context, viewId string) error {
	s.mu.Lock()
	if len(s.views) <= 1 {
		s.mu.Unlock()
		s.notice(NoticeWarning, "a table must retain at least one view")
		return ErrLastView
	}
	s.mu.Unlock()

	if err := s.client.DeleteView(ctx, viewId); err != nil {
		s.notice(NoticeError, "failed to delete view")
		return errors.Wrap(err, "DeleteView")
	}

	s.mu.Lock()
	kept := make([]models.View, 0, len(s.views))
	for _, view := range s.views {
		if view.Id != viewId {
			kept = append(kept, view)
		}
	}
	s.views = kept
	reselect := s.activeViewId == viewId
	if reselect {
		s.activeViewId = fallbackViewId(s.views)
		s.page = 1
	}
	s.mu.Unlock()

	s.notify()
	if reselect {
		return s.LoadRecords(ctx)
	}
	return nil
}

// ReorderViewFields sets the active view's column order immediately.
func (s *Store) ReorderViewFields(ctx context.Context, orderedIds []string) error {
	return s.patchActiveConfig(ctx, func(cfg *models.ViewConfig) {
		cfg.FieldOrderIds = orderedIds
	})
}

// AddFieldToView un-hides a field in the given view's config immediately.
func (s *Store) AddFieldToView(ctx context.Context, viewId, fieldId string) error {
	return s.patchViewConfig(ctx, viewId, func(cfg *models.ViewConfig) {
		hidden := make([]string, 0, len(cfg.HiddenFieldIds))
		for _, id := range cfg.HiddenFieldIds {
			if id != fieldId {
				hidden = append(hidden, id)
			}
		}
		cfg.HiddenFieldIds = hidden
	})
}

// RemoveFieldFromView hides a field in the given view's config immediately.
func (s *Store) RemoveFieldFromView(ctx context.Context, viewId, fieldId string) error {
	return s.patchViewConfig(ctx, viewId, func(cfg *models.ViewConfig) {
		cfg.HiddenFieldIds = append(cfg.HiddenFieldIds, fieldId)
	})
}

func (s *Store) patchActiveConfig(ctx context.Context, mutate func(cfg *models.ViewConfig)) error {
	s.mu.Lock()
	viewId := s.activeViewId
	s.mu.Unlock()
	if viewId == "" {
		return ErrNoActiveView
	}
	return s.patchViewConfig(ctx, viewId, mutate)
}

// patchViewConfig applies a structural config change with an immediate,
// awaited request, unlike the debounced UpdateViewConfig path.
func (s *Store) patchViewConfig(ctx context.Context, viewId string, mutate func(cfg *models.ViewConfig)) error {
	s.mu.Lock()
	var cfg models.ViewConfig
	found := false
	for _, view := range s.views {
		if view.Id == viewId {
			cfg = view.Config
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return errors.Errorf("view %s not found", viewId)
	}

	mutate(&cfg)
	cfg = helper.NormalizeViewConfig(cfg, s.fields)
	if len(helper.VisibleFieldIds(cfg)) == 0 {
		s.mu.Unlock()
		s.notice(NoticeWarning, "at least one field must remain visible")
		return ErrLastVisibleField
	}
	s.mu.Unlock()

	updated, err := s.client.PatchView(ctx, viewId, models.PatchViewRequest{Config: &cfg})
	if err != nil {
		s.notice(NoticeError, "failed to update view")
		return errors.Wrap(err, "PatchView")
	}

	s.mu.Lock()
	for i := range s.views {
		if s.views[i].Id == viewId {
			s.views[i].Config = helper.NormalizeViewConfig(updated.Config, s.fields)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// --- filter presets ---

// SaveFilterPreset snapshots the active filters/sorts under a name,
// overwriting an existing preset with the same name.
func (s *Store) SaveFilterPreset(name string, pinned bool) error {
	s.mu.Lock()
	view := s.activeViewRefLocked()
	if view == nil {
		s.mu.Unlock()
		return ErrNoActiveView
	}

	preset := models.FilterPreset{
		Id:          uuid.New().String(),
		Name:        name,
		Pinned:      pinned,
		FilterLogic: view.Config.FilterLogic,
		Filters:     append([]models.FilterCondition{}, view.Config.Filters...),
		Sorts:       append([]models.SortCondition{}, view.Config.Sorts...),
	}

	presets := make([]models.FilterPreset, 0, len(view.Config.FilterPresets)+1)
	replaced := false
	for _, existing := range view.Config.FilterPresets {
		if existing.Name == name {
			preset.Id = existing.Id
			presets = append(presets, preset)
			replaced = true
			continue
		}
		presets = append(presets, existing)
	}
	if !replaced {
		presets = append(presets, preset)
	}
	s.mu.Unlock()

	return s.UpdateViewConfig(models.ViewConfigPatch{FilterPresets: presets})
}

// FilterPresets lists the active view's presets, pinned-first then by name.
func (s *Store) FilterPresets() []models.FilterPreset {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.activeViewRefLocked()
	if view == nil {
		return nil
	}
	return helper.SortPresets(view.Config.FilterPresets)
}

// DeleteFilterPreset removes a preset from the active view.
func (s *Store) DeleteFilterPreset(presetId string) error {
	s.mu.Lock()
	view := s.activeViewRefLocked()
	if view == nil {
		s.mu.Unlock()
		return ErrNoActiveView
	}

	presets := make([]models.FilterPreset, 0, len(view.Config.FilterPresets))
	for _, preset := range view.Config.FilterPresets {
		if preset.Id != presetId {
			presets = append(presets, preset)
		}
	}
	s.mu.Unlock()

	return s.UpdateViewConfig(models.ViewConfigPatch{FilterPresets: presets})
}

// ApplyFilterPreset restores a preset's filters/sorts and requeries from
// page 1.
func (s *Store) ApplyFilterPreset(ctx context.Context, presetId string) error {
	s.mu.Lock()
	view := s.activeViewRefLocked()
	if view == nil {
		s.mu.Unlock()
		return ErrNoActiveView
	}

	var preset *models.FilterPreset
	for i := range view.Config.FilterPresets {
		if view.Config.FilterPresets[i].Id == presetId {
			preset = &view.Config.FilterPresets[i]
			break
		}
	}
	if preset == nil {
		s.mu.Unlock()
		return errors.Errorf("preset %s not found", presetId)
	}
	logic := preset.FilterLogic
	filters := append([]models.FilterCondition{}, preset.Filters...)
	sorts := append([]models.SortCondition{}, preset.Sorts...)
	s.mu.Unlock()

	return s.SetFilters(ctx, filters, sorts, logic)
}
