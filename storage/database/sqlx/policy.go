package sqlxdb

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/policy"
)

// policyStore queries the tables directly, outside of any policy.
type policyStore struct {
	db *DB
}

var _ policy.Store = (*policyStore)(nil) // interface compliance check

func NewPolicyStore(db *DB) policy.Store {
	return &policyStore{db: db}
}

func (s *policyStore) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var found bool
	err := sqlx.GetContext(ctx, s.db.exec(ctx), &found, query, args...)
	return found, trapErr(err, "checking existence")
}

func (s *policyStore) HasRole(ctx context.Context, principalID string, role model.Role) (bool, error) {
	if !validID(principalID) {
		return false, nil
	}
	return s.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_grants WHERE principal_id = $1 AND role = $2)`,
		principalID, role)
}

func (s *policyStore) CourseByID(ctx context.Context, id string) (model.Course, error) {
	if !validID(id) {
		return model.Course{}, core.ErrNotFound
	}
	var crs model.Course
	err := sqlx.GetContext(ctx, s.db.exec(ctx), &crs,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	return crs, trapErr(err, "selecting course")
}

func (s *policyStore) ModuleByID(ctx context.Context, id string) (model.Module, error) {
	if !validID(id) {
		return model.Module{}, core.ErrNotFound
	}
	var mod model.Module
	err := sqlx.GetContext(ctx, s.db.exec(ctx), &mod,
		`SELECT `+moduleColumns+` FROM modules WHERE id = $1`, id)
	return mod, trapErr(err, "selecting module")
}

func (s *policyStore) HasActiveEnrollment(ctx context.Context, principalID, courseID string) (bool, error) {
	if !validID(principalID) || !validID(courseID) {
		return false, nil
	}
	return s.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE principal_id = $1 AND course_id = $2 AND status = $3)`,
		principalID, courseID, model.EnrollmentActive)
}
