package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"gridbase/gridbase_go_view_engine_service/config"
	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/logger"
)

const valueTruncateLimit = 120

// OperationLog returns the newest-first audit entries for the table.
func (s *Store) OperationLog() []models.OperationLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OperationLogEntry{}, s.oplog...)
}

// logOperation prepends one entry and persists the bounded log. Persistence
// failures are logged but never surfaced; the audit trail is best-effort.
func (s *Store) logOperation(ctx context.Context, action models.OperationAction, recordId string, changes []models.FieldChange) {
	s.mu.Lock()
	entry := models.OperationLogEntry{
		Id:       uuid.New().String(),
		Action:   action,
		TableId:  s.tableId,
		RecordId: recordId,
		Changes:  changes,
		At:       time.Now().UTC(),
	}
	s.oplog = append([]models.OperationLogEntry{entry}, s.oplog...)
	if limit := s.cfg.OperationLogLimit; limit > 0 && len(s.oplog) > limit {
		s.oplog = s.oplog[:limit]
	}
	data, err := json.Marshal(s.oplog)
	s.mu.Unlock()

	if err != nil {
		s.log.Error("---OperationLog--->>>", logger.Error(err))
		return
	}
	if err := s.kv.Set(ctx, config.OperationLogKey, data); err != nil {
		s.log.Error("---OperationLog--->>>", logger.Error(err))
	}
}

// loadOperationLog restores the persisted audit log, if any.
func (s *Store) loadOperationLog(ctx context.Context) {
	data, found, err := s.kv.Get(ctx, config.OperationLogKey)
	if err != nil {
		s.log.Error("---OperationLog--->>>", logger.Error(err))
		return
	}
	if !found {
		return
	}

	var entries []models.OperationLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Error("---OperationLog--->>>", logger.Error(err))
		return
	}

	s.mu.Lock()
	s.oplog = entries
	s.mu.Unlock()
}
