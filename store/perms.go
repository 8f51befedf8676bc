package store

import (
	"context"

	"github.com/pkg/errors"

	"gridbase/gridbase_go_view_engine_service/models"
	"gridbase/gridbase_go_view_engine_service/pkg/logger"
)

// LoadButtonPermissions fetches the current user's action gates. Until this
// succeeds every action is allowed; the server re-checks anyway.
func (s *Store) LoadButtonPermissions(ctx context.Context) error {
	s.mu.Lock()
	tableId := s.tableId
	s.mu.Unlock()

	set, err := s.client.GetButtonPermissions(ctx, tableId)
	if err != nil {
		s.log.Error("---LoadButtonPermissions--->>>", logger.Error(err))
		return errors.Wrap(err, "GetButtonPermissions")
	}

	s.mu.Lock()
	s.buttonPerms = &set
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) permitted(check func(models.ButtonPermissionSet) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buttonPerms == nil {
		return true
	}
	return check(*s.buttonPerms)
}

func (s *Store) CanCreateRecord() bool {
	return s.permitted(func(p models.ButtonPermissionSet) bool { return p.CanCreateRecord })
}

func (s *Store) CanDeleteRecord() bool {
	return s.permitted(func(p models.ButtonPermissionSet) bool { return p.CanDeleteRecord })
}

func (s *Store) CanImportRecords() bool {
	return s.permitted(func(p models.ButtonPermissionSet) bool { return p.CanImportRecords })
}

func (s *Store) CanExportRecords() bool {
	return s.permitted(func(p models.ButtonPermissionSet) bool { return p.CanExportRecords })
}

func (s *Store) CanManageFilters() bool {
	return s.permitted(func(p models.ButtonPermissionSet) bool { return p.CanManageFilters })
}

func (s *Store) CanManageSorts() bool {
	return s.permitted(func(p models.ButtonPermissionSet) bool { return p.CanManageSorts })
}

// LoadReferenceMembers caches id to display-name resolution for member
// fields.
func (s *Store) LoadReferenceMembers(ctx context.Context) error {
	s.mu.Lock()
	tableId := s.tableId
	s.mu.Unlock()

	members, err := s.client.GetReferenceMembers(ctx, tableId)
	if err != nil {
		s.log.Error("---LoadReferenceMembers--->>>", logger.Error(err))
		return errors.Wrap(err, "GetReferenceMembers")
	}

	s.mu.Lock()
	s.members = make(map[string]string, len(members))
	for _, member := range members {
		s.members[member.Id] = member.Name
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// MemberName resolves a member id to its display name, falling back to the
// id itself when unknown.
func (s *Store) MemberName(memberId string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name, ok := s.members[memberId]; ok {
		return name
	}
	return memberId
}
