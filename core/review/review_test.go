package review_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/review"
	testutils "github.com/trezcool/academia/tests"
)

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	env := testutils.NewEnv(t)
	admin := env.Admin(t, "Root")
	ada := env.Student(t, "Ada")
	bob := env.Student(t, "Bob")
	crs := env.CreateCourse(t, admin, course.NewCourse{Title: "Go", Slug: "go", IsPublished: true})
	draft := env.CreateCourse(t, admin, course.NewCourse{Title: "Draft", Slug: "draft"})

	_, err := env.Reviews.Create(ctx, ada, review.NewReview{CourseID: crs.ID, Rating: 6})
	assert.True(t, core.IsConstraintViolation(err))
	_, err = env.Reviews.Create(ctx, ada, review.NewReview{CourseID: crs.ID, Rating: 0})
	assert.True(t, core.IsConstraintViolation(err))

	rev, err := env.Reviews.Create(ctx, ada, review.NewReview{CourseID: crs.ID, Rating: 5, Comment: " Great "})
	require.NoError(t, err)
	assert.Equal(t, ada.ID, rev.PrincipalID)
	assert.Equal(t, "Great", rev.Comment)
	assert.False(t, rev.IsApproved)

	_, err = env.Reviews.Create(ctx, ada, review.NewReview{CourseID: crs.ID, Rating: 4})
	assert.True(t, core.IsConstraintViolation(err))

	_, err = env.Reviews.Create(ctx, bob, review.NewReview{CourseID: draft.ID, Rating: 4})
	assert.True(t, errors.Is(err, core.ErrNotFound))

	adminRev, err := env.Reviews.Create(ctx, admin, review.NewReview{CourseID: draft.ID, Rating: 3})
	require.NoError(t, err)
	assert.True(t, adminRev.IsApproved)
}

func TestService_moderation(t *testing.T) {
	ctx := context.Background()
	env := testutils.NewEnv(t)
	admin := env.Admin(t, "Root")
	ada := env.Student(t, "Ada")
	bob := env.Student(t, "Bob")
	crs := env.CreateCourse(t, admin, course.NewCourse{Title: "Go", Slug: "go", IsPublished: true})

	rev, err := env.Reviews.Create(ctx, ada, review.NewReview{CourseID: crs.ID, Rating: 4})
	require.NoError(t, err)

	t.Run("pending reviews are only seen by their author and admins", func(t *testing.T) {
		_, err := env.Reviews.Get(ctx, ada, rev.ID)
		assert.NoError(t, err)
		_, err = env.Reviews.Get(ctx, admin, rev.ID)
		assert.NoError(t, err)
		_, err = env.Reviews.Get(ctx, bob, rev.ID)
		assert.True(t, errors.Is(err, core.ErrNotFound))

		revs, err := env.Reviews.List(ctx, bob, review.QueryFilter{CourseID: crs.ID})
		require.NoError(t, err)
		assert.Empty(t, revs)
	})

	t.Run("authors cannot approve", func(t *testing.T) {
		_, err := env.Reviews.SetApproval(ctx, ada, rev.ID, review.Approval{IsApproved: true})
		assert.True(t, errors.Is(err, core.ErrNotFound))
	})

	t.Run("approved reviews are public", func(t *testing.T) {
		approved, err := env.Reviews.SetApproval(ctx, admin, rev.ID, review.Approval{IsApproved: true})
		require.NoError(t, err)
		assert.True(t, approved.IsApproved)

		revs, err := env.Reviews.List(ctx, bob, review.QueryFilter{CourseID: crs.ID})
		require.NoError(t, err)
		assert.Len(t, revs, 1)

		summary, err := env.Reviews.RatingSummary(ctx, bob, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, review.RatingSummary{CourseID: crs.ID, Count: 1, Average: 4}, summary)
	})

	t.Run("edits by the author go back to moderation", func(t *testing.T) {
		_, err := env.Reviews.Update(ctx, bob, rev.ID, review.UpdateReview{Rating: testutils.IntPtr(1)})
		assert.True(t, errors.Is(err, core.ErrNotFound))

		edited, err := env.Reviews.Update(ctx, ada, rev.ID, review.UpdateReview{Rating: testutils.IntPtr(5)})
		require.NoError(t, err)
		assert.Equal(t, 5, edited.Rating)
		assert.False(t, edited.IsApproved)

		_, err = env.Reviews.Update(ctx, ada, rev.ID, review.UpdateReview{Rating: testutils.IntPtr(6)})
		assert.True(t, core.IsConstraintViolation(err))

		summary, err := env.Reviews.RatingSummary(ctx, bob, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Count)
	})

	t.Run("only admins delete", func(t *testing.T) {
		assert.True(t, errors.Is(env.Reviews.Delete(ctx, ada, rev.ID), core.ErrNotFound))
		require.NoError(t, env.Reviews.Delete(ctx, admin, rev.ID))
	})
}

func TestService_RatingSummary(t *testing.T) {
	ctx := context.Background()
	env := testutils.NewEnv(t)
	admin := env.Admin(t, "Root")
	crs := env.CreateCourse(t, admin, course.NewCourse{Title: "Go", Slug: "go", IsPublished: true})

	for _, rating := range []int{5, 4, 4} {
		student := env.Student(t, "Student")
		rev, err := env.Reviews.Create(ctx, student, review.NewReview{CourseID: crs.ID, Rating: rating})
		require.NoError(t, err)
		_, err = env.Reviews.SetApproval(ctx, admin, rev.ID, review.Approval{IsApproved: true})
		require.NoError(t, err)
	}
	pending := env.Student(t, "Pending")
	_, err := env.Reviews.Create(ctx, pending, review.NewReview{CourseID: crs.ID, Rating: 1})
	require.NoError(t, err)

	summary, err := env.Reviews.RatingSummary(ctx, pending, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 4.33, summary.Average)
}
