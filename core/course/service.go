package course

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/policy"
)

type Service struct {
	tx      core.Transactor
	repo    Repository
	policy  *policy.Engine
	logger  core.Logger
	nowFunc func() time.Time
}

func NewService(tx core.Transactor, repo Repository, engine *policy.Engine, logger core.Logger) *Service {
	return &Service{
		tx:      tx,
		repo:    repo,
		policy:  engine,
		logger:  logger,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts the course and, when given, its modules and lessons in one transaction.
func (svc *Service) Create(ctx context.Context, actor policy.Actor, nc NewCourse) (Outline, error) {
	now := svc.nowFunc()
	crs := model.Course{
		ID:               uuid.NewString(),
		Title:            core.CleanString(nc.Title),
		Slug:             core.CleanString(nc.Slug, true /* lower */),
		Description:      nc.Description,
		ShortDescription: nc.ShortDescription,
		ThumbnailURL:     core.CleanString(nc.ThumbnailURL),
		Price:            nc.Price,
		OriginalPrice:    null.Float64FromPtr(nc.OriginalPrice),
		IsPublished:      nc.IsPublished,
		CreatedBy:        actor.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var out Outline
	ev := svc.policy.For(actor)
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := ev.Check(ctx, policy.Insert, crs); err != nil {
			return err
		}
		created, err := svc.repo.CreateCourse(ctx, crs)
		if err != nil {
			return errors.Wrap(err, "creating course")
		}
		mods, err := svc.insertStructure(ctx, ev, created.ID, nc.Modules)
		if err != nil {
			return err
		}
		out = Outline{Course: created, Modules: mods}
		return nil
	})
	if err != nil {
		return Outline{}, err
	}
	return out, nil
}

// Update saves the set fields of uc and, when uc.Modules is non-nil, replaces the course structure, all in one transaction.
func (svc *Service) Update(ctx context.Context, actor policy.Actor, id string, uc UpdateCourse) (Outline, error) {
	var out Outline
	ev := svc.policy.For(actor)
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		crs, err := svc.getVisible(ctx, ev, GetFilter{ID: id})
		if err != nil {
			return err
		}
		if err = ev.Check(ctx, policy.Update, crs); err != nil {
			return err
		}

		applyUpdate(&crs, uc)
		crs.UpdatedAt = svc.nowFunc()
		if crs, err = svc.repo.UpdateCourse(ctx, crs); err != nil {
			return errors.Wrap(err, "updating course")
		}
		out.Course = crs

		if uc.Modules != nil {
			out.Modules, err = svc.replaceStructure(ctx, ev, crs.ID, uc.Modules)
		} else {
			out.Modules, err = svc.visibleStructure(ctx, ev, crs.ID)
		}
		return err
	})
	if err != nil {
		return Outline{}, err
	}
	return out, nil
}

func applyUpdate(crs *model.Course, uc UpdateCourse) {
	if uc.Title != nil {
		crs.Title = core.CleanString(*uc.Title)
	}
	if uc.Slug != nil {
		crs.Slug = core.CleanString(*uc.Slug, true /* lower */)
	}
	if uc.Description != nil {
		crs.Description = *uc.Description
	}
	if uc.ShortDescription != nil {
		crs.ShortDescription = *uc.ShortDescription
	}
	if uc.ThumbnailURL != nil {
		crs.ThumbnailURL = core.CleanString(*uc.ThumbnailURL)
	}
	if uc.Price != nil {
		crs.Price = *uc.Price
	}
	if uc.OriginalPrice.Set {
		crs.OriginalPrice = uc.OriginalPrice.Float64
	}
	if uc.IsPublished != nil {
		crs.IsPublished = *uc.IsPublished
	}
}

// SaveStructure replaces every module and lesson of the course with modules.
// Sort orders follow the submission order, starting at 0. Module and lesson ids change on every save.
// On failure nothing is changed.
func (svc *Service) SaveStructure(ctx context.Context, actor policy.Actor, courseID string, modules []NewModule) ([]model.Module, error) {
	var saved []model.Module
	ev := svc.policy.For(actor)
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		crs, err := svc.getVisible(ctx, ev, GetFilter{ID: courseID})
		if err != nil {
			return err
		}
		if err = ev.Check(ctx, policy.Update, crs); err != nil {
			return err
		}
		saved, err = svc.replaceStructure(ctx, ev, crs.ID, modules)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "saving course structure")
	}
	return saved, nil
}

func (svc *Service) replaceStructure(ctx context.Context, ev *policy.Evaluation, courseID string, modules []NewModule) ([]model.Module, error) {
	existing, err := svc.repo.QueryModules(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	for _, mod := range existing {
		if err = ev.Check(ctx, policy.Delete, mod); err != nil {
			return nil, err
		}
	}
	if _, err = svc.repo.DeleteCourseModules(ctx, courseID); err != nil {
		return nil, errors.Wrap(err, "deleting modules")
	}
	return svc.insertStructure(ctx, ev, courseID, modules)
}

func (svc *Service) insertStructure(ctx context.Context, ev *policy.Evaluation, courseID string, modules []NewModule) ([]model.Module, error) {
	now := svc.nowFunc()
	saved := make([]model.Module, 0, len(modules))

	for i, nm := range modules {
		mod := model.Module{
			ID:          uuid.NewString(),
			CourseID:    courseID,
			Title:       core.CleanString(nm.Title),
			Description: nm.Description,
			SortOrder:   i,
			CreatedAt:   now,
		}
		if err := ev.Check(ctx, policy.Insert, mod); err != nil {
			return nil, err
		}
		mod, err := svc.repo.CreateModule(ctx, mod)
		if err != nil {
			return nil, errors.Wrapf(err, "creating module %d", i)
		}

		mod.Lessons = make([]model.Lesson, 0, len(nm.Lessons))
		for j, nl := range nm.Lessons {
			lsn := model.Lesson{
				ID:              uuid.NewString(),
				ModuleID:        mod.ID,
				Title:           core.CleanString(nl.Title),
				Description:     nl.Description,
				VideoURL:        core.CleanString(nl.VideoURL),
				DurationMinutes: null.IntFromPtr(nl.DurationMinutes),
				SortOrder:       j,
				IsPreview:       nl.IsPreview,
				CreatedAt:       now,
			}
			if err = ev.Check(ctx, policy.Insert, lsn); err != nil {
				return nil, err
			}
			if lsn, err = svc.repo.CreateLesson(ctx, lsn); err != nil {
				return nil, errors.Wrapf(err, "creating lesson %d of module %d", j, i)
			}
			mod.Lessons = append(mod.Lessons, lsn)
		}
		saved = append(saved, mod)
	}
	return saved, nil
}

func (svc *Service) Delete(ctx context.Context, actor policy.Actor, id string) error {
	ev := svc.policy.For(actor)
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		crs, err := svc.getVisible(ctx, ev, GetFilter{ID: id})
		if err != nil {
			return err
		}
		if err = ev.Check(ctx, policy.Delete, crs); err != nil {
			return err
		}
		return errors.Wrap(svc.repo.DeleteCourse(ctx, id), "deleting course")
	})
}

func (svc *Service) getVisible(ctx context.Context, ev *policy.Evaluation, filter GetFilter) (model.Course, error) {
	crs, err := svc.repo.GetCourse(ctx, filter)
	if err != nil {
		return model.Course{}, errors.Wrap(err, "getting course")
	}
	if err = ev.Check(ctx, policy.Select, crs); err != nil {
		return model.Course{}, err
	}
	return crs, nil
}

func (svc *Service) Get(ctx context.Context, actor policy.Actor, id string) (model.Course, error) {
	return svc.getVisible(ctx, svc.policy.For(actor), GetFilter{ID: id})
}

func (svc *Service) GetBySlug(ctx context.Context, actor policy.Actor, slug string) (model.Course, error) {
	return svc.getVisible(ctx, svc.policy.For(actor), GetFilter{Slug: core.CleanString(slug, true /* lower */)})
}

// List returns the courses visible to actor, matching filter.
func (svc *Service) List(ctx context.Context, actor policy.Actor, filter *QueryFilter, ordering ...core.DBOrdering) ([]model.Course, error) {
	courses, err := svc.repo.QueryCourses(ctx, filter, core.AllowedOrderings(ordering, OrderingFields...)...)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	ev := svc.policy.For(actor)
	visible := make([]model.Course, 0, len(courses))
	for _, crs := range courses {
		ok, err := ev.Allowed(ctx, policy.Select, crs)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, crs)
		}
	}
	return visible, nil
}

// Outline returns the course with every module and lesson actor may see.
func (svc *Service) Outline(ctx context.Context, actor policy.Actor, id string) (Outline, error) {
	ev := svc.policy.For(actor)
	crs, err := svc.getVisible(ctx, ev, GetFilter{ID: id})
	if err != nil {
		return Outline{}, err
	}
	mods, err := svc.visibleStructure(ctx, ev, crs.ID)
	if err != nil {
		return Outline{}, err
	}
	return Outline{Course: crs, Modules: mods}, nil
}

func (svc *Service) visibleStructure(ctx context.Context, ev *policy.Evaluation, courseID string) ([]model.Module, error) {
	mods, err := svc.visibleModules(ctx, ev, courseID)
	if err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return mods, nil
	}

	ids := make([]string, 0, len(mods))
	for _, mod := range mods {
		ids = append(ids, mod.ID)
	}
	lessons, err := svc.visibleLessons(ctx, ev, ids...)
	if err != nil {
		return nil, err
	}

	byModule := make(map[string][]model.Lesson, len(mods))
	for _, lsn := range lessons {
		byModule[lsn.ModuleID] = append(byModule[lsn.ModuleID], lsn)
	}
	for i := range mods {
		mods[i].Lessons = byModule[mods[i].ID]
		if mods[i].Lessons == nil {
			mods[i].Lessons = []model.Lesson{}
		}
	}
	return mods, nil
}

func (svc *Service) visibleModules(ctx context.Context, ev *policy.Evaluation, courseID string) ([]model.Module, error) {
	mods, err := svc.repo.QueryModules(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	visible := make([]model.Module, 0, len(mods))
	for _, mod := range mods {
		ok, err := ev.Allowed(ctx, policy.Select, mod)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, mod)
		}
	}
	return visible, nil
}

func (svc *Service) visibleLessons(ctx context.Context, ev *policy.Evaluation, moduleIDs ...string) ([]model.Lesson, error) {
	lessons, err := svc.repo.QueryLessons(ctx, moduleIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	visible := make([]model.Lesson, 0, len(lessons))
	for _, lsn := range lessons {
		ok, err := ev.Allowed(ctx, policy.Select, lsn)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, lsn)
		}
	}
	return visible, nil
}

// ListModules returns the modules of a course visible to actor. The course itself must be visible.
func (svc *Service) ListModules(ctx context.Context, actor policy.Actor, courseID string) ([]model.Module, error) {
	ev := svc.policy.For(actor)
	if _, err := svc.getVisible(ctx, ev, GetFilter{ID: courseID}); err != nil {
		return nil, err
	}
	return svc.visibleModules(ctx, ev, courseID)
}

// ListLessons returns the lessons of a module visible to actor, each filtered on its own.
// An enrollee of a draft course sees its lessons even though the module is hidden from them.
// It fails with core.ErrNotFound only when neither the module nor any of its lessons is visible.
func (svc *Service) ListLessons(ctx context.Context, actor policy.Actor, moduleID string) ([]model.Lesson, error) {
	ev := svc.policy.For(actor)
	mod, err := svc.repo.GetModule(ctx, moduleID)
	if err != nil {
		return nil, errors.Wrap(err, "getting module")
	}
	lessons, err := svc.visibleLessons(ctx, ev, moduleID)
	if err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		if err = ev.Check(ctx, policy.Select, mod); err != nil {
			return nil, err
		}
	}
	return lessons, nil
}

func (svc *Service) GetLesson(ctx context.Context, actor policy.Actor, id string) (model.Lesson, error) {
	lsn, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return model.Lesson{}, errors.Wrap(err, "getting lesson")
	}
	if err = svc.policy.Check(ctx, actor, policy.Select, lsn); err != nil {
		return model.Lesson{}, err
	}
	return lsn, nil
}

func (svc *Service) DeleteModule(ctx context.Context, actor policy.Actor, id string) error {
	ev := svc.policy.For(actor)
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		mod, err := svc.repo.GetModule(ctx, id)
		if err != nil {
			return errors.Wrap(err, "getting module")
		}
		if err = ev.Check(ctx, policy.Select, mod); err != nil {
			return err
		}
		if err = ev.Check(ctx, policy.Delete, mod); err != nil {
			return err
		}
		return errors.Wrap(svc.repo.DeleteModule(ctx, id), "deleting module")
	})
}

func (svc *Service) DeleteLesson(ctx context.Context, actor policy.Actor, id string) error {
	ev := svc.policy.For(actor)
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		lsn, err := svc.repo.GetLesson(ctx, id)
		if err != nil {
			return errors.Wrap(err, "getting lesson")
		}
		if err = ev.Check(ctx, policy.Select, lsn); err != nil {
			return err
		}
		if err = ev.Check(ctx, policy.Delete, lsn); err != nil {
			return err
		}
		return errors.Wrap(svc.repo.DeleteLesson(ctx, id), "deleting lesson")
	})
}
