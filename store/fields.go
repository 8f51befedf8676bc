package store

import (
	"context"

	"github.com/pkg/errors"

	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/helper"
	"gridbase/gridbase_go_view_engine_service/pkg/logger"
)

// CreateField creates a field on the active table and appends it to every
// view's column order.
func (s *Store) CreateField(ctx context.Context, req models.CreateFieldRequest) (models.Field, error) {
	if !req.Type.Valid() {
		return models.Field{}, errors.Errorf("invalid field type %q", req.Type)
	}

	s.mu.Lock()
	tableId := s.tableId
	s.mu.Unlock()

	s.log.Info("---CreateField--->>>", logger.String("name", req.Name))

	field, err := s.client.CreateField(ctx, tableId, req)
	if err != nil {
		s.log.Error("---CreateField--->>>", logger.Error(err))
		s.notice(NoticeError, "failed to create field")
		return models.Field{}, errors.Wrap(err, "CreateField")
	}

	s.mu.Lock()
	s.fields = append(s.fields, field)
	for i := range s.views {
		s.views[i].Config.FieldOrderIds = append(s.views[i].Config.FieldOrderIds, field.Id)
		s.views[i].Config = helper.NormalizeViewConfig(s.views[i].Config, s.fields)
	}
	s.mu.Unlock()

	s.notify()
	return field, nil
}

// DeleteField removes a field and purges every trace of it: record values,
// snapshots, each view's order/hidden/frozen/width/component maps, filters,
// sorts and any editing focus on it.
func (s *Store) DeleteField(ctx context.Context, fieldId string) error {
	s.mu.Lock()
	found := false
	for _, field := range s.fields {
		if field.Id == fieldId {
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return ErrFieldNotFound
	}

	if err := s.client.DeleteField(ctx, fieldId); err != nil {
		s.log.Error("---DeleteField--->>>", logger.Error(err))
		s.notice(NoticeError, "failed to delete field")
		return errors.Wrap(err, "DeleteField")
	}

	s.mu.Lock()
	kept := make([]models.Field, 0, len(s.fields))
	for _, field := range s.fields {
		if field.Id != fieldId {
			kept = append(kept, field)
		}
	}
	s.fields = kept

	for i := range s.records {
		delete(s.records[i].Values, fieldId)
	}
	for _, snap := range s.snapshots {
		delete(snap, fieldId)
	}
	for _, marks := range s.dirty {
		delete(marks, fieldId)
	}
	for i := range s.views {
		s.views[i].Config = helper.PurgeFieldFromConfig(s.views[i].Config, fieldId)
		s.views[i].Config = helper.NormalizeViewConfig(s.views[i].Config, s.fields)
	}

	rules := make([]models.CascadeRule, 0, len(s.rules))
	for _, rule := range s.rules {
		if rule.ParentFieldId != fieldId && rule.ChildFieldId != fieldId {
			rules = append(rules, rule)
		}
	}
	rulesChanged := len(rules) != len(s.rules)
	s.rules = rules

	if s.editing != nil && s.editing.fieldId == fieldId {
		s.editing = nil
	}
	s.mu.Unlock()

	if rulesChanged {
		if err := s.persistRules(ctx); err != nil {
			s.log.Error("---DeleteField--->>>", logger.Error(err))
		}
	}
	s.notify()
	return nil
}
