package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/review"
)

type reviewRepository struct {
	db *DB
}

var _ review.Repository = (*reviewRepository)(nil)

func NewReviewRepository(db *DB) review.Repository {
	return &reviewRepository{db: db}
}

func checkReview(t *tables, rev model.Review) error {
	if rev.Rating < model.MinRating || rev.Rating > model.MaxRating {
		return violation(reviewsRatingCheck)
	}
	if _, ok := t.courses[rev.CourseID]; !ok {
		return violation(reviewsCourseFKey)
	}
	for _, r := range t.reviews {
		if r.PrincipalID == rev.PrincipalID && r.CourseID == rev.CourseID && r.ID != rev.ID {
			return violation(reviewsUniqueKey)
		}
	}
	return nil
}

func (repo *reviewRepository) CreateReview(ctx context.Context, rev model.Review) (model.Review, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.reviews[rev.ID]; ok {
			return violation(reviewsPKey)
		}
		if err := checkReview(t, rev); err != nil {
			return err
		}
		t.reviews[rev.ID] = rev
		return nil
	})
	if err != nil {
		return model.Review{}, err
	}
	return rev, nil
}

func (repo *reviewRepository) GetReview(ctx context.Context, id string) (model.Review, error) {
	var rev model.Review
	err := repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if rev, ok = t.reviews[id]; !ok {
			return core.ErrNotFound
		}
		return nil
	})
	return rev, err
}

func (repo *reviewRepository) QueryReviews(ctx context.Context, filter review.QueryFilter) ([]model.Review, error) {
	revs := make([]model.Review, 0)
	_ = repo.db.read(ctx, func(t *tables) error {
		for _, r := range t.reviews {
			if filter.CourseID != "" && r.CourseID != filter.CourseID {
				continue
			}
			if filter.PrincipalID != "" && r.PrincipalID != filter.PrincipalID {
				continue
			}
			if filter.IsApproved != nil && r.IsApproved != *filter.IsApproved {
				continue
			}
			revs = append(revs, r)
		}
		return nil
	})
	sort.Slice(revs, func(i, j int) bool {
		if revs[i].CreatedAt.Equal(revs[j].CreatedAt) {
			return revs[i].ID < revs[j].ID
		}
		return revs[i].CreatedAt.After(revs[j].CreatedAt)
	})
	return revs, nil
}

func (repo *reviewRepository) UpdateReview(ctx context.Context, rev model.Review) (model.Review, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		orig, ok := t.reviews[rev.ID]
		if !ok {
			return core.ErrNotFound
		}
		rev.PrincipalID = orig.PrincipalID
		rev.CourseID = orig.CourseID
		rev.CreatedAt = orig.CreatedAt
		if err := checkReview(t, rev); err != nil {
			return err
		}
		t.reviews[rev.ID] = rev
		return nil
	})
	if err != nil {
		return model.Review{}, err
	}
	return rev, nil
}

func (repo *reviewRepository) DeleteReview(ctx context.Context, id string) error {
	return repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.reviews[id]; !ok {
			return core.ErrNotFound
		}
		delete(t.reviews, id)
		return nil
	})
}
