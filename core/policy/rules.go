package policy

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
)

func defaultRules() map[Entity]Rule {
	ownerOrAdmin := anyOf(isAdmin, isOwner)

	return map[Entity]Rule{
		// no admin override on profiles, and profiles are never deleted through the platform
		EntityProfile: {Select: isOwner, Insert: isOwner, Update: isOwner},
		EntityRoleGrant: {
			Select: ownerOrAdmin,
			Insert: isAdmin,
			Update: isAdmin,
			Delete: isAdmin,
		},
		EntityCourse: {
			Select: anyOf(isAdmin, coursePublished),
			Insert: isAdmin,
			Update: isAdmin,
			Delete: isAdmin,
		},
		EntityModule: {
			Select: anyOf(isAdmin, moduleCoursePublished),
			Insert: isAdmin,
			Update: isAdmin,
			Delete: isAdmin,
		},
		EntityLesson: {
			Select: anyOf(isAdmin, lessonReadable),
			Insert: isAdmin,
			Update: isAdmin,
			Delete: isAdmin,
		},
		EntityEnrollment: {
			Select: ownerOrAdmin,
			Insert: isAdmin,
			Update: isAdmin,
			Delete: isAdmin,
		},
		EntityReview: {
			Select: anyOf(isAdmin, reviewApproved, isOwner),
			Insert: ownerOrAdmin,
			Update: ownerOrAdmin,
			Delete: isAdmin,
		},
	}
}

// anyOf ORs predicates, stopping at the first one that allows.
func anyOf(preds ...Predicate) Predicate {
	return func(ctx context.Context, ev *Evaluation, row interface{}) (bool, error) {
		for _, pred := range preds {
			ok, err := pred(ctx, ev, row)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

func isAdmin(ctx context.Context, ev *Evaluation, _ interface{}) (bool, error) {
	return ev.IsAdmin(ctx)
}

func isOwner(_ context.Context, ev *Evaluation, row interface{}) (bool, error) {
	switch r := row.(type) {
	case model.Profile:
		return ev.Owns(r.ID), nil
	case model.RoleGrant:
		return ev.Owns(r.PrincipalID), nil
	case model.Enrollment:
		return ev.Owns(r.PrincipalID), nil
	case model.Review:
		return ev.Owns(r.PrincipalID), nil
	}
	return false, nil
}

func coursePublished(_ context.Context, _ *Evaluation, row interface{}) (bool, error) {
	crs, ok := row.(model.Course)
	return ok && crs.IsPublished, nil
}

func moduleCoursePublished(ctx context.Context, ev *Evaluation, row interface{}) (bool, error) {
	mod, ok := row.(model.Module)
	if !ok {
		return false, nil
	}
	crs, found, err := parentCourse(ctx, ev, mod.CourseID)
	if err != nil || !found {
		return false, err
	}
	return crs.IsPublished, nil
}

// lessonReadable: a preview lesson of a published course, or any lesson of a course the actor is actively enrolled in.
func lessonReadable(ctx context.Context, ev *Evaluation, row interface{}) (bool, error) {
	lsn, ok := row.(model.Lesson)
	if !ok {
		return false, nil
	}
	mod, err := ev.store().ModuleByID(ctx, lsn.ModuleID)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "resolving lesson module")
	}
	crs, found, err := parentCourse(ctx, ev, mod.CourseID)
	if err != nil || !found {
		return false, err
	}
	if lsn.IsPreview && crs.IsPublished {
		return true, nil
	}
	if ev.actor.IsAnonymous() {
		return false, nil
	}
	enrolled, err := ev.store().HasActiveEnrollment(ctx, ev.actor.ID, crs.ID)
	if err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return enrolled, nil
}

func reviewApproved(_ context.Context, _ *Evaluation, row interface{}) (bool, error) {
	rev, ok := row.(model.Review)
	return ok && rev.IsApproved, nil
}

func parentCourse(ctx context.Context, ev *Evaluation, courseID string) (model.Course, bool, error) {
	crs, err := ev.store().CourseByID(ctx, courseID)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return model.Course{}, false, nil
		}
		return model.Course{}, false, errors.Wrap(err, "resolving parent course")
	}
	return crs, true, nil
}
