package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/cascade"
	"gridbase/gridbase_go_view_engine_service/pkg/helper"
	"gridbase/gridbase_go_view_engine_service/pkg/logger"
)

// CommitCellEdit runs the optimistic mutation pipeline for one cell edit:
// compute the cascade patch, apply all of it locally, clear editing focus,
// then submit only the keys that differ from the snapshot. A failed submit
// leaves the optimistic value in place and marks the keys dirty.
func (s *Store) CommitCellEdit(ctx context.Context, recordId, fieldId string, value any) error {
	s.mu.Lock()

	var record *models.Record
	for i := range s.records {
		if s.records[i].Id == recordId {
			record = &s.records[i]
			break
		}
	}
	if record == nil {
		s.mu.Unlock()
		return errors.Wrapf(ErrRecordNotFound, "record %s", recordId)
	}
	if _, ok := s.fieldById(fieldId); !ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrFieldNotFound, "field %s", fieldId)
	}

	patch := cascade.BuildPatch(s.fields, record.Values, fieldId, value, s.rules, s.activeComponentsLocked())

	snapshot := s.snapshots[recordId]
	diff := helper.DiffPatch(patch, snapshot)
	fields := append([]models.Field{}, s.fields...)

	// Type-check before touching the live record: a mismatched value is
	// rejected outright instead of lingering locally as if committed.
	for _, key := range helper.SortedKeys(diff) {
		field, ok := fieldByIdIn(fields, key)
		if !ok {
			continue
		}
		if err := helper.ValidateValue(field, diff[key]); err != nil {
			s.mu.Unlock()
			s.notice(NoticeWarning, err.Error())
			return err
		}
	}

	if record.Values == nil {
		record.Values = map[string]any{}
	}
	for key, v := range patch {
		record.Values[key] = v
	}
	s.editing = nil

	oldValues := map[string]any{}
	for key := range diff {
		oldValues[key] = snapshot[key]
	}
	s.mu.Unlock()

	s.notify()

	if len(diff) == 0 {
		return nil
	}

	if _, err := s.client.PatchRecord(ctx, recordId, diff); err != nil {
		s.log.Error("---PatchRecord--->>>", logger.Error(err))
		s.markDirty(recordId, diff)
		s.notice(NoticeError, "failed to save record changes")
		// The optimistic value intentionally stays in place; Dirty exposes
		// the unsaved keys.
		return errors.Wrap(err, "PatchRecord")
	}

	s.mu.Lock()
	if s.snapshots[recordId] == nil {
		s.snapshots[recordId] = map[string]any{}
	}
	for key, v := range diff {
		s.snapshots[recordId][key] = v
		delete(s.dirty[recordId], key)
	}
	s.mu.Unlock()

	s.logOperation(ctx, models.OperationUpdate, recordId, fieldChanges(fields, oldValues, diff))
	s.notify()
	return nil
}

func (s *Store) markDirty(recordId string, patch map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty[recordId] == nil {
		s.dirty[recordId] = map[string]bool{}
	}
	for key := range patch {
		s.dirty[recordId][key] = true
	}
}

func fieldByIdIn(fields []models.Field, id string) (models.Field, bool) {
	for _, f := range fields {
		if f.Id == id {
			return f, true
		}
	}
	return models.Field{}, false
}

func fieldChanges(fields []models.Field, oldValues, newValues map[string]any) []models.FieldChange {
	changes := make([]models.FieldChange, 0, len(newValues))
	for _, key := range helper.SortedKeys(newValues) {
		name := key
		if field, ok := fieldByIdIn(fields, key); ok {
			name = field.Name
		}
		changes = append(changes, models.FieldChange{
			FieldId:   key,
			FieldName: name,
			OldValue:  helper.TruncateValue(oldValues[key], valueTruncateLimit),
			NewValue:  helper.TruncateValue(newValues[key], valueTruncateLimit),
		})
	}
	return changes
}

// CreateRecord creates a record with the given initial values and appends the
// server-returned record to the loaded page.
func (s *Store) CreateRecord(ctx context.Context, initialValues map[string]any) (models.Record, error) {
	if !s.CanCreateRecord() {
		return models.Record{}, ErrPermissionDenied
	}

	s.mu.Lock()
	tableId := s.tableId
	fields := append([]models.Field{}, s.fields...)
	s.mu.Unlock()

	for key, value := range initialValues {
		field, ok := fieldByIdIn(fields, key)
		if !ok {
			return models.Record{}, errors.Wrapf(ErrFieldNotFound, "field %s", key)
		}
		if err := helper.ValidateValue(field, value); err != nil {
			return models.Record{}, err
		}
	}

	record, err := s.client.CreateRecord(ctx, tableId, initialValues)
	if err != nil {
		s.log.Error("---CreateRecord--->>>", logger.Error(err))
		s.notice(NoticeError, "failed to create record")
		return models.Record{}, errors.Wrap(err, "CreateRecord")
	}

	s.mu.Lock()
	s.records = append(s.records, record)
	snap := map[string]any{}
	for k, v := range record.Values {
		snap[k] = v
	}
	s.snapshots[record.Id] = snap
	s.totalRecords++
	s.mu.Unlock()

	s.logOperation(ctx, models.OperationCreate, record.Id, fieldChanges(fields, nil, record.Values))
	s.notify()
	return record, nil
}

// DeleteRecords deletes each id with one concurrent request per record and
// tolerates partial failure: ids that fail stay selected, ids that succeed
// leave local state and the total count.
func (s *Store) DeleteRecords(ctx context.Context, ids []string) (models.BulkDeleteResult, error) {
	if !s.CanDeleteRecord() {
		return models.BulkDeleteResult{}, ErrPermissionDenied
	}

	var (
		mu     sync.Mutex
		result models.BulkDeleteResult
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := s.client.DeleteRecord(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Error("---DeleteRecord--->>>", logger.String("recordId", id), logger.Error(err))
				result.Failed = append(result.Failed, id)
			} else {
				result.Succeeded = append(result.Succeeded, id)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	succeeded := map[string]bool{}
	for _, id := range result.Succeeded {
		succeeded[id] = true
	}
	kept := make([]models.Record, 0, len(s.records))
	for _, record := range s.records {
		if succeeded[record.Id] {
			delete(s.snapshots, record.Id)
			delete(s.selected, record.Id)
			delete(s.dirty, record.Id)
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept
	s.totalRecords -= len(result.Succeeded)
	if s.totalRecords < 0 {
		s.totalRecords = 0
	}
	s.mu.Unlock()

	if len(result.Succeeded) > 0 {
		s.logOperation(ctx, models.OperationDelete, "", nil)
	}
	s.notice(NoticeInfo, fmt.Sprintf("delete finished, succeeded: %d, failed: %d",
		len(result.Succeeded), len(result.Failed)))
	s.notify()
	return result, nil
}

// DeleteSelected deletes the current selection. With the select-all sentinel
// active it delegates to a server-side delete-by-query so the id list never
// materializes client-side; otherwise it bulk-deletes the explicit set.
func (s *Store) DeleteSelected(ctx context.Context) error {
	s.mu.Lock()
	all := s.allSelected
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	tableId := s.tableId
	req := s.queryRequestLocked()
	s.mu.Unlock()

	if all {
		if !s.CanDeleteRecord() {
			return ErrPermissionDenied
		}
		deleted, err := s.client.DeleteRecordsByQuery(ctx, tableId, req)
		if err != nil {
			s.notice(NoticeError, "failed to delete records")
			return errors.Wrap(err, "DeleteRecordsByQuery")
		}
		s.mu.Lock()
		s.allSelected = false
		s.selected = map[string]bool{}
		s.mu.Unlock()
		s.notice(NoticeInfo, fmt.Sprintf("deleted %d records", deleted))
		return s.LoadRecords(ctx)
	}

	if len(ids) == 0 {
		return nil
	}
	_, err := s.DeleteRecords(ctx, ids)
	return err
}

// BulkImport creates records in fixed-size chunks, each chunk fanned out on a
// bounded worker pool. The loaded record cache is capped afterwards so an
// import cannot grow client memory without bound.
func (s *Store) BulkImport(ctx context.Context, rows []map[string]any) (models.BulkImportResult, error) {
	if !s.CanImportRecords() {
		return models.BulkImportResult{}, ErrPermissionDenied
	}

	s.mu.Lock()
	tableId := s.tableId
	s.mu.Unlock()

	chunkSize := s.cfg.ImportChunkSize
	if chunkSize <= 0 {
		chunkSize = 50
	}
	concurrency := s.cfg.ImportConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	var (
		mu      sync.Mutex
		result  models.BulkImportResult
		created []models.Record
	)

	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for _, row := range rows[start:end] {
			row := row
			g.Go(func() error {
				record, err := s.client.CreateRecord(gctx, tableId, row)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed++
					return nil
				}
				result.Created++
				created = append(created, record)
				return nil
			})
		}
		_ = g.Wait()
	}

	s.mu.Lock()
	for _, record := range created {
		s.records = append(s.records, record)
		snap := map[string]any{}
		for k, v := range record.Values {
			snap[k] = v
		}
		s.snapshots[record.Id] = snap
	}
	s.totalRecords += result.Created

	limit := s.cfg.RecordCacheLimit
	if limit > 0 && len(s.records) > limit {
		dropped := s.records[:len(s.records)-limit]
		s.records = append([]models.Record{}, s.records[len(s.records)-limit:]...)
		for _, record := range dropped {
			delete(s.snapshots, record.Id)
		}
	}
	s.mu.Unlock()

	s.logOperation(ctx, models.OperationImport, "", nil)
	s.notice(NoticeInfo, fmt.Sprintf("import finished, succeeded: %d, failed: %d", result.Created, result.Failed))
	s.notify()
	return result, nil
}

// ImportFromXLSX parses the first sheet of an xlsx file and bulk-imports it.
func (s *Store) ImportFromXLSX(ctx context.Context, path string) (models.BulkImportResult, error) {
	s.mu.Lock()
	fields := append([]models.Field{}, s.fields...)
	s.mu.Unlock()

	rows, err := helper.ParseRecordRows(path, fields)
	if err != nil {
		return models.BulkImportResult{}, err
	}
	return s.BulkImport(ctx, rows)
}
