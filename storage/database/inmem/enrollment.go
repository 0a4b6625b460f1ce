package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/model"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func checkEnrollment(t *tables, enr model.Enrollment) error {
	if !enr.Status.Valid() {
		return violation(enrollmentsStatusCheck)
	}
	if _, ok := t.courses[enr.CourseID]; !ok {
		return violation(enrollmentsCourseFKey)
	}
	for _, e := range t.enrollments {
		if e.PrincipalID == enr.PrincipalID && e.CourseID == enr.CourseID && e.ID != enr.ID {
			return violation(enrollmentsUniqueKey)
		}
	}
	return nil
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr model.Enrollment) (model.Enrollment, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.enrollments[enr.ID]; ok {
			return violation(enrollmentsPKey)
		}
		if err := checkEnrollment(t, enr); err != nil {
			return err
		}
		t.enrollments[enr.ID] = enr
		return nil
	})
	if err != nil {
		return model.Enrollment{}, err
	}
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, id string) (model.Enrollment, error) {
	var enr model.Enrollment
	err := repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if enr, ok = t.enrollments[id]; !ok {
			return core.ErrNotFound
		}
		return nil
	})
	return enr, err
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.QueryFilter) ([]model.Enrollment, error) {
	enrs := make([]model.Enrollment, 0)
	_ = repo.db.read(ctx, func(t *tables) error {
		for _, e := range t.enrollments {
			if filter.PrincipalID != "" && e.PrincipalID != filter.PrincipalID {
				continue
			}
			if filter.CourseID != "" && e.CourseID != filter.CourseID {
				continue
			}
			if filter.Status != "" && e.Status != filter.Status {
				continue
			}
			enrs = append(enrs, e)
		}
		return nil
	})
	sort.Slice(enrs, func(i, j int) bool {
		if enrs[i].EnrolledAt.Equal(enrs[j].EnrolledAt) {
			return enrs[i].ID < enrs[j].ID
		}
		return enrs[i].EnrolledAt.After(enrs[j].EnrolledAt)
	})
	return enrs, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, enr model.Enrollment) (model.Enrollment, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		orig, ok := t.enrollments[enr.ID]
		if !ok {
			return core.ErrNotFound
		}
		enr.EnrolledAt = orig.EnrolledAt
		if err := checkEnrollment(t, enr); err != nil {
			return err
		}
		t.enrollments[enr.ID] = enr
		return nil
	})
	if err != nil {
		return model.Enrollment{}, err
	}
	return enr, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(ctx context.Context, id string) error {
	return repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.enrollments[id]; !ok {
			return core.ErrNotFound
		}
		delete(t.enrollments, id)
		return nil
	})
}
