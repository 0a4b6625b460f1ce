package review

import (
	"context"
	"math"
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
		CreateReview(ctx context.Context, rev model.Review) (model.Review, error)
		GetReview(ctx context.Context, id string) (model.Review, error)
		QueryReviews(ctx context.Context, filter QueryFilter) ([]model.Review, error)
		UpdateReview(ctx context.Context, rev model.Review) (model.Review, error)
		DeleteReview(ctx context.Context, id string) error
	}

	QueryFilter struct {
		CourseID    string
		PrincipalID string
		IsApproved  *bool
	}

	// NewReview is authored by the acting principal.
	// Rating bounds are enforced by storage; see model.MinRating and model.MaxRating.
	NewReview struct {
		CourseID string `json:"course_id" validate:"required"`
		Rating   int    `json:"rating" validate:"required"`
		Comment  string `json:"comment" validate:"max=5000"`
	}

	UpdateReview struct {
		Rating  *int    `json:"rating"`
		Comment *string `json:"comment" validate:"omitempty,max=5000"`
	}

	Approval struct {
		IsApproved bool `json:"is_approved"`
	}

	RatingSummary struct {
		CourseID string  `json:"course_id"`
		Count    int     `json:"count"`
		Average  float64 `json:"average"`
	}
)

func (nr NewReview) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, nr)
}

func (ur UpdateReview) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, ur)
}

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

// Create stores a review authored by actor. It awaits approval unless actor is an admin.
func (svc *Service) Create(ctx context.Context, actor policy.Actor, nr NewReview) (model.Review, error) {
	rev := model.Review{
		ID:          uuid.NewString(),
		PrincipalID: actor.ID,
		CourseID:    nr.CourseID,
		Rating:      nr.Rating,
		Comment:     core.CleanString(nr.Comment),
		CreatedAt:   svc.nowFunc(),
	}

	var created model.Review
	ev := svc.policy.For(actor)
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		// reviews are left on courses the author can see
		crs, err := svc.policy.Store().CourseByID(ctx, nr.CourseID)
		if err != nil {
			return errors.Wrap(err, "getting course")
		}
		if err = ev.Check(ctx, policy.Select, crs); err != nil {
			return err
		}
		if err = ev.Check(ctx, policy.Insert, rev); err != nil {
			return err
		}
		isAdmin, err := ev.IsAdmin(ctx)
		if err != nil {
			return err
		}
		rev.IsApproved = isAdmin

		created, err = svc.repo.CreateReview(ctx, rev)
		return errors.Wrap(err, "creating review")
	})
	if err != nil {
		return model.Review{}, err
	}
	return created, nil
}

func (svc *Service) getVisible(ctx context.Context, ev *policy.Evaluation, id string) (model.Review, error) {
	rev, err := svc.repo.GetReview(ctx, id)
	if err != nil {
		return model.Review{}, errors.Wrap(err, "getting review")
	}
	if err = ev.Check(ctx, policy.Select, rev); err != nil {
		return model.Review{}, err
	}
	return rev, nil
}

func (svc *Service) Get(ctx context.Context, actor policy.Actor, id string) (model.Review, error) {
	return svc.getVisible(ctx, svc.policy.For(actor), id)
}

// List returns the reviews visible to actor: approved ones, the actor's own, or all of them for admins.
func (svc *Service) List(ctx context.Context, actor policy.Actor, filter QueryFilter) ([]model.Review, error) {
	revs, err := svc.repo.QueryReviews(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying reviews")
	}

	ev := svc.policy.For(actor)
	visible := make([]model.Review, 0, len(revs))
	for _, rev := range revs {
		ok, err := ev.Allowed(ctx, policy.Select, rev)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, rev)
		}
	}
	return visible, nil
}

// Update edits a review. An edit by a non-admin sends the review back to moderation.
func (svc *Service) Update(ctx context.Context, actor policy.Actor, id string, ur UpdateReview) (model.Review, error) {
	var rev model.Review
	ev := svc.policy.For(actor)
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		orig, err := svc.getVisible(ctx, ev, id)
		if err != nil {
			return err
		}
		if err = ev.Check(ctx, policy.Update, orig); err != nil {
			return err
		}

		if ur.Rating != nil {
			orig.Rating = *ur.Rating
		}
		if ur.Comment != nil {
			orig.Comment = core.CleanString(*ur.Comment)
		}
		isAdmin, err := ev.IsAdmin(ctx)
		if err != nil {
			return err
		}
		if !isAdmin {
			orig.IsApproved = false
		}

		rev, err = svc.repo.UpdateReview(ctx, orig)
		return errors.Wrap(err, "updating review")
	})
	return rev, err
}

// SetApproval is the moderation step; only admins may approve or reject.
func (svc *Service) SetApproval(ctx context.Context, actor policy.Actor, id string, approval Approval) (model.Review, error) {
	var rev model.Review
	ev := svc.policy.For(actor)
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		orig, err := svc.getVisible(ctx, ev, id)
		if err != nil {
			return err
		}
		isAdmin, err := ev.IsAdmin(ctx)
		if err != nil {
			return err
		}
		if !isAdmin {
			return core.ErrNotFound
		}
		if err = ev.Check(ctx, policy.Update, orig); err != nil {
			return err
		}

		orig.IsApproved = approval.IsApproved
		rev, err = svc.repo.UpdateReview(ctx, orig)
		return errors.Wrap(err, "approving review")
	})
	return rev, err
}

func (svc *Service) Delete(ctx context.Context, actor policy.Actor, id string) error {
	ev := svc.policy.For(actor)
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		rev, err := svc.getVisible(ctx, ev, id)
		if err != nil {
			return err
		}
		if err = ev.Check(ctx, policy.Delete, rev); err != nil {
			return err
		}
		return errors.Wrap(svc.repo.DeleteReview(ctx, id), "deleting review")
	})
}

// RatingSummary counts and averages the approved reviews of a course visible to actor.
func (svc *Service) RatingSummary(ctx context.Context, actor policy.Actor, courseID string) (RatingSummary, error) {
	ev := svc.policy.For(actor)
	crs, err := svc.policy.Store().CourseByID(ctx, courseID)
	if err != nil {
		return RatingSummary{}, errors.Wrap(err, "getting course")
	}
	if err = ev.Check(ctx, policy.Select, crs); err != nil {
		return RatingSummary{}, err
	}

	approved := true
	revs, err := svc.repo.QueryReviews(ctx, QueryFilter{CourseID: courseID, IsApproved: &approved})
	if err != nil {
		return RatingSummary{}, errors.Wrap(err, "querying reviews")
	}

	summary := RatingSummary{CourseID: courseID, Count: len(revs)}
	if summary.Count == 0 {
		return summary, nil
	}
	var total int
	for _, rev := range revs {
		total += rev.Rating
	}
	summary.Average = math.Round(float64(total)/float64(summary.Count)*100) / 100
	return summary, nil
}
