package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"gridbase/gridbase_go_view_engine_service/config"
	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/logger"
)

func (s *Store) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Store) PageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageSize
}

// TotalPages derives the page count from the last known total; an empty
// result set still reports one page.
func (s *Store) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPages(s.totalRecords, s.pageSize)
}

func totalPages(total, pageSize int) int {
	if total <= 0 {
		return 1
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// SetPage requests the given page and reloads. Out-of-range pages clamp to
// the valid range instead of failing.
func (s *Store) SetPage(ctx context.Context, page int) error {
	s.mu.Lock()
	if page < 1 {
		page = 1
	}
	if max := totalPages(s.totalRecords, s.pageSize); page > max {
		page = max
	}
	s.page = page
	s.mu.Unlock()

	return s.LoadRecords(ctx)
}

// SetPageSize changes the page size and resets to the first page.
func (s *Store) SetPageSize(ctx context.Context, pageSize int) error {
	if pageSize < 1 || pageSize > config.MaxPageSize {
		return errors.Errorf("page size must be between 1 and %d", config.MaxPageSize)
	}

	s.mu.Lock()
	s.pageSize = pageSize
	s.page = 1
	s.mu.Unlock()

	return s.LoadRecords(ctx)
}

// SetFilters replaces the active view's filters and sorts, persists them as
// part of the view config and requeries from page 1.
func (s *Store) SetFilters(ctx context.Context, filters []models.FilterCondition, sorts []models.SortCondition, logic models.FilterLogic) error {
	if logic != models.FilterLogicAnd && logic != models.FilterLogicOr {
		return errors.Errorf("invalid filter logic %q", logic)
	}

	if filters == nil {
		filters = []models.FilterCondition{}
	}
	if sorts == nil {
		sorts = []models.SortCondition{}
	}
	if err := s.UpdateViewConfig(models.ViewConfigPatch{
		Filters:     filters,
		Sorts:       sorts,
		FilterLogic: &logic,
	}); err != nil {
		return err
	}

	s.mu.Lock()
	s.page = 1
	s.mu.Unlock()

	return s.LoadRecords(ctx)
}

// queryRequestLocked builds the record query for the current page from the
// active view's config. Callers hold s.mu.
func (s *Store) queryRequestLocked() models.RecordQueryRequest {
	req := models.RecordQueryRequest{
		ViewId:      s.activeViewId,
		PageSize:    s.pageSize,
		FilterLogic: string(models.FilterLogicAnd),
	}
	if s.page > 1 {
		req.Cursor = cast.ToString((s.page - 1) * s.pageSize)
	}
	if view := s.activeViewRefLocked(); view != nil {
		req.Filters = append([]models.FilterCondition{}, view.Config.Filters...)
		req.Sorts = append([]models.SortCondition{}, view.Config.Sorts...)
		if view.Config.FilterLogic != "" {
			req.FilterLogic = string(view.Config.FilterLogic)
		}
	}
	return req
}

// LoadRecords fetches the current page. Each call takes a new generation
// token; a response whose token is no longer current is discarded, so a slow
// earlier query can never overwrite a newer page. If the total shrank while
// paging and the current page fell out of range, the page clamps and the
// query reruns.
func (s *Store) LoadRecords(ctx context.Context) error {
	for {
		s.mu.Lock()
		s.generation++
		gen := s.generation
		tableId := s.tableId
		req := s.queryRequestLocked()
		s.mu.Unlock()

		page, err := s.client.QueryRecords(ctx, tableId, req)
		if err != nil {
			s.log.Error("---LoadRecords--->>>", logger.Error(err))
			s.notice(NoticeError, "failed to load records")
			return errors.Wrap(err, "QueryRecords")
		}

		s.mu.Lock()
		if gen != s.generation {
			s.mu.Unlock()
			return nil
		}

		s.totalRecords = page.TotalCount
		if max := totalPages(page.TotalCount, s.pageSize); len(page.Items) == 0 && s.page > max {
			s.page = max
			s.mu.Unlock()
			continue
		}

		s.records = page.Items
		s.snapshots = make(map[string]map[string]any, len(page.Items))
		for _, record := range page.Items {
			s.snapshots[record.Id] = cloneValues(record.Values)
		}
		s.dirty = map[string]map[string]bool{}
		s.mu.Unlock()

		s.notify()
		return nil
	}
}

func cloneValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
