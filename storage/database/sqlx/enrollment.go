package sqlxdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/model"
)

const enrollmentColumns = "id, principal_id, course_id, status, enrolled_at"

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr model.Enrollment) (model.Enrollment, error) {
	var created model.Enrollment
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &created,
		`INSERT INTO enrollments (`+enrollmentColumns+`)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+enrollmentColumns,
		enr.ID, enr.PrincipalID, enr.CourseID, enr.Status, enr.EnrolledAt)
	return created, trapErr(err, "inserting enrollment")
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, id string) (model.Enrollment, error) {
	if !validID(id) {
		return model.Enrollment{}, core.ErrNotFound
	}
	var enr model.Enrollment
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &enr,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id)
	return enr, trapErr(err, "selecting enrollment")
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.QueryFilter) ([]model.Enrollment, error) {
	enrs := make([]model.Enrollment, 0)
	var (
		where []string
		args  []interface{}
	)
	for _, cond := range []struct{ col, val string }{
		{"principal_id", filter.PrincipalID},
		{"course_id", filter.CourseID},
	} {
		if cond.val == "" {
			continue
		}
		if !validID(cond.val) {
			return enrs, nil
		}
		args = append(args, cond.val)
		where = append(where, cond.col+" = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}

	q := `SELECT ` + enrollmentColumns + ` FROM enrollments`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY enrolled_at DESC, id"

	if err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &enrs, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting enrollments")
	}
	return enrs, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, enr model.Enrollment) (model.Enrollment, error) {
	if !validID(enr.ID) {
		return model.Enrollment{}, core.ErrNotFound
	}
	var updated model.Enrollment
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &updated,
		`UPDATE enrollments SET status = $2 WHERE id = $1 RETURNING `+enrollmentColumns,
		enr.ID, enr.Status)
	return updated, trapErr(err, "updating enrollment")
}

func (repo *enrollmentRepository) DeleteEnrollment(ctx context.Context, id string) error {
	if !validID(id) {
		return core.ErrNotFound
	}
	res, err := repo.db.exec(ctx).ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return trapErr(err, "deleting enrollment")
	}
	return mustAffect(res, "deleting enrollment")
}
