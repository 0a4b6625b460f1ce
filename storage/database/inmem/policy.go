package inmemdb

import (
	"context"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/policy"
)

// policyStore reads the tables directly, outside of any policy.
type policyStore struct {
	db *DB
}

var _ policy.Store = (*policyStore)(nil)

func NewPolicyStore(db *DB) policy.Store {
	return &policyStore{db: db}
}

func (s *policyStore) HasRole(ctx context.Context, principalID string, role model.Role) (bool, error) {
	var found bool
	err := s.db.read(ctx, func(t *tables) error {
		for _, g := range t.roleGrants {
			if g.PrincipalID == principalID && g.Role == role {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (s *policyStore) CourseByID(ctx context.Context, id string) (model.Course, error) {
	var crs model.Course
	err := s.db.read(ctx, func(t *tables) error {
		var ok bool
		if crs, ok = t.courses[id]; !ok {
			return core.ErrNotFound
		}
		return nil
	})
	return crs, err
}

func (s *policyStore) ModuleByID(ctx context.Context, id string) (model.Module, error) {
	var mod model.Module
	err := s.db.read(ctx, func(t *tables) error {
		var ok bool
		if mod, ok = t.modules[id]; !ok {
			return core.ErrNotFound
		}
		return nil
	})
	return mod, err
}

func (s *policyStore) HasActiveEnrollment(ctx context.Context, principalID, courseID string) (bool, error) {
	var found bool
	err := s.db.read(ctx, func(t *tables) error {
		for _, e := range t.enrollments {
			if e.PrincipalID == principalID && e.CourseID == courseID && e.IsActive() {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}
