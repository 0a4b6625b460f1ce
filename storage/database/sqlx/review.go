package sqlxdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/review"
)

const reviewColumns = "id, principal_id, course_id, rating, comment, is_approved, created_at"

type reviewRepository struct {
	db *DB
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *DB) review.Repository {
	return &reviewRepository{db: db}
}

func (repo *reviewRepository) CreateReview(ctx context.Context, rev model.Review) (model.Review, error) {
	var created model.Review
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &created,
		`INSERT INTO reviews (`+reviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+reviewColumns,
		rev.ID, rev.PrincipalID, rev.CourseID, rev.Rating, rev.Comment, rev.IsApproved, rev.CreatedAt)
	return created, trapErr(err, "inserting review")
}

func (repo *reviewRepository) GetReview(ctx context.Context, id string) (model.Review, error) {
	if !validID(id) {
		return model.Review{}, core.ErrNotFound
	}
	var rev model.Review
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &rev,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	return rev, trapErr(err, "selecting review")
}

func (repo *reviewRepository) QueryReviews(ctx context.Context, filter review.QueryFilter) ([]model.Review, error) {
	revs := make([]model.Review, 0)
	var (
		where []string
		args  []interface{}
	)
	for _, cond := range []struct{ col, val string }{
		{"course_id", filter.CourseID},
		{"principal_id", filter.PrincipalID},
	} {
		if cond.val == "" {
			continue
		}
		if !validID(cond.val) {
			return revs, nil
		}
		args = append(args, cond.val)
		where = append(where, cond.col+" = $"+strconv.Itoa(len(args)))
	}
	if filter.IsApproved != nil {
		args = append(args, *filter.IsApproved)
		where = append(where, "is_approved = $"+strconv.Itoa(len(args)))
	}

	q := `SELECT ` + reviewColumns + ` FROM reviews`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id"

	if err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &revs, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting reviews")
	}
	return revs, nil
}

func (repo *reviewRepository) UpdateReview(ctx context.Context, rev model.Review) (model.Review, error) {
	if !validID(rev.ID) {
		return model.Review{}, core.ErrNotFound
	}
	var updated model.Review
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &updated,
		`UPDATE reviews SET rating = $2, comment = $3, is_approved = $4 WHERE id = $1
		RETURNING `+reviewColumns,
		rev.ID, rev.Rating, rev.Comment, rev.IsApproved)
	return updated, trapErr(err, "updating review")
}

func (repo *reviewRepository) DeleteReview(ctx context.Context, id string) error {
	if !validID(id) {
		return core.ErrNotFound
	}
	res, err := repo.db.exec(ctx).ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return trapErr(err, "deleting review")
	}
	return mustAffect(res, "deleting review")
}
