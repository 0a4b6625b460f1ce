package enrollment

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/policy"
)

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, enr model.Enrollment) (model.Enrollment, error)
		GetEnrollment(ctx context.Context, id string) (model.Enrollment, error)
		QueryEnrollments(ctx context.Context, filter QueryFilter) ([]model.Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr model.Enrollment) (model.Enrollment, error)
		DeleteEnrollment(ctx context.Context, id string) error
	}

	QueryFilter struct {
		PrincipalID string
		CourseID    string
		Status      model.EnrollmentStatus
	}

	NewEnrollment struct {
		PrincipalID string                 `json:"principal_id" validate:"required,uuid"`
		CourseID    string                 `json:"course_id" validate:"required"`
		Status      model.EnrollmentStatus `json:"status" validate:"omitempty,oneof=active expired refunded"`
	}

	UpdateStatus struct {
		Status model.EnrollmentStatus `json:"status" validate:"required,oneof=active expired refunded"`
	}
)

func (ne NewEnrollment) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, ne)
}

func (us UpdateStatus) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, us)
}

// Service manages enrollments. Only admins write them; principals read their own.
type Service struct {
	tx      core.Transactor
	repo    Repository
	policy  *policy.Engine
	nowFunc func() time.Time
}

func NewService(tx core.Transactor, repo Repository, engine *policy.Engine) *Service {
	return &Service{
		tx:      tx,
		repo:    repo,
		policy:  engine,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) Enroll(ctx context.Context, actor policy.Actor, ne NewEnrollment) (model.Enrollment, error) {
	status := ne.Status
	if status == "" {
		status = model.EnrollmentActive
	}
	enr := model.Enrollment{
		ID:          uuid.NewString(),
		PrincipalID: ne.PrincipalID,
		CourseID:    ne.CourseID,
		Status:      status,
		EnrolledAt:  svc.nowFunc(),
	}
	if err := svc.policy.Check(ctx, actor, policy.Insert, enr); err != nil {
		return model.Enrollment{}, err
	}
	enr, err := svc.repo.CreateEnrollment(ctx, enr)
	if err != nil {
		return model.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return enr, nil
}

func (svc *Service) getVisible(ctx context.Context, ev *policy.Evaluation, id string) (model.Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(ctx, id)
	if err != nil {
		return model.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	if err = ev.Check(ctx, policy.Select, enr); err != nil {
		return model.Enrollment{}, err
	}
	return enr, nil
}

func (svc *Service) Get(ctx context.Context, actor policy.Actor, id string) (model.Enrollment, error) {
	return svc.getVisible(ctx, svc.policy.For(actor), id)
}

// List returns the enrollments visible to actor, matching filter.
func (svc *Service) List(ctx context.Context, actor policy.Actor, filter QueryFilter) ([]model.Enrollment, error) {
	enrs, err := svc.repo.QueryEnrollments(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}

	ev := svc.policy.For(actor)
	visible := make([]model.Enrollment, 0, len(enrs))
	for _, enr := range enrs {
		ok, err := ev.Allowed(ctx, policy.Select, enr)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, enr)
		}
	}
	return visible, nil
}

func (svc *Service) UpdateStatus(ctx context.Context, actor policy.Actor, id string, us UpdateStatus) (model.Enrollment, error) {
	var enr model.Enrollment
	ev := svc.policy.For(actor)
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		orig, err := svc.getVisible(ctx, ev, id)
		if err != nil {
			return err
		}
		if err = ev.Check(ctx, policy.Update, orig); err != nil {
			return err
		}
		orig.Status = us.Status
		enr, err = svc.repo.UpdateEnrollment(ctx, orig)
		return errors.Wrap(err, "updating enrollment")
	})
	return enr, err
}

func (svc *Service) Delete(ctx context.Context, actor policy.Actor, id string) error {
	ev := svc.policy.For(actor)
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		enr, err := svc.getVisible(ctx, ev, id)
		if err != nil {
			return err
		}
		if err = ev.Check(ctx, policy.Delete, enr); err != nil {
			return err
		}
		return errors.Wrap(svc.repo.DeleteEnrollment(ctx, id), "deleting enrollment")
	})
}
