package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/model"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func checkCourse(t *tables, crs model.Course) error {
	if crs.Price < 0 {
		return violation(coursesPriceCheck)
	}
	if crs.OriginalPrice.Valid && crs.OriginalPrice.Float64 < 0 {
		return violation(coursesOrigPriceCheck)
	}
	for _, c := range t.courses {
		if c.Slug == crs.Slug && c.ID != crs.ID {
			return violation(coursesSlugKey)
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs model.Course) (model.Course, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.courses[crs.ID]; ok {
			return violation(coursesPKey)
		}
		if err := checkCourse(t, crs); err != nil {
			return err
		}
		t.courses[crs.ID] = crs
		return nil
	})
	if err != nil {
		return model.Course{}, err
	}
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (model.Course, error) {
	var crs model.Course
	err := repo.db.read(ctx, func(t *tables) error {
		if filter.ID != "" {
			c, ok := t.courses[filter.ID]
			if !ok || (filter.Slug != "" && c.Slug != filter.Slug) {
				return core.ErrNotFound
			}
			crs = c
			return nil
		}
		if filter.Slug != "" {
			for _, c := range t.courses {
				if c.Slug == filter.Slug {
					crs = c
					return nil
				}
			}
		}
		return core.ErrNotFound
	})
	return crs, err
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering ...core.DBOrdering) ([]model.Course, error) {
	courses := make([]model.Course, 0)
	_ = repo.db.read(ctx, func(t *tables) error {
		for _, c := range t.courses {
			if filter != nil {
				if filter.Search != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(filter.Search)) {
					continue
				}
				if filter.IsPublished != nil && c.IsPublished != *filter.IsPublished {
					continue
				}
			}
			courses = append(courses, c)
		}
		return nil
	})

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(courses, func(i, j int) bool {
		for _, ord := range ordering {
			if cmp := compareCourses(courses[i], courses[j], ord.Field); cmp != 0 {
				if ord.Ascending {
					return cmp < 0
				}
				return cmp > 0
			}
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func compareCourses(a, b model.Course, field string) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "slug":
		return strings.Compare(a.Slug, b.Slug)
	case "price":
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	case "updated_at":
		switch {
		case a.UpdatedAt.Before(b.UpdatedAt):
			return -1
		case a.UpdatedAt.After(b.UpdatedAt):
			return 1
		}
	}
	return 0
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs model.Course) (model.Course, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		orig, ok := t.courses[crs.ID]
		if !ok {
			return core.ErrNotFound
		}
		if err := checkCourse(t, crs); err != nil {
			return err
		}
		crs.CreatedBy = orig.CreatedBy
		crs.CreatedAt = orig.CreatedAt
		crs.UpdatedAt = repo.db.nowFunc()
		t.courses[crs.ID] = crs
		return nil
	})
	if err != nil {
		return model.Course{}, err
	}
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	return repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.courses[id]; !ok {
			return core.ErrNotFound
		}
		deleteCourseModules(t, id)
		for eid, e := range t.enrollments {
			if e.CourseID == id {
				delete(t.enrollments, eid)
			}
		}
		for rid, r := range t.reviews {
			if r.CourseID == id {
				delete(t.reviews, rid)
			}
		}
		delete(t.courses, id)
		return nil
	})
}

func (repo *courseRepository) CreateModule(ctx context.Context, mod model.Module) (model.Module, error) {
	mod.Lessons = nil
	err := repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.modules[mod.ID]; ok {
			return violation(modulesPKey)
		}
		if _, ok := t.courses[mod.CourseID]; !ok {
			return violation(modulesCourseFKey)
		}
		t.modules[mod.ID] = mod
		return nil
	})
	if err != nil {
		return model.Module{}, err
	}
	return mod, nil
}

func (repo *courseRepository) GetModule(ctx context.Context, id string) (model.Module, error) {
	var mod model.Module
	err := repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if mod, ok = t.modules[id]; !ok {
			return core.ErrNotFound
		}
		return nil
	})
	return mod, err
}

func (repo *courseRepository) QueryModules(ctx context.Context, courseID string) ([]model.Module, error) {
	mods := make([]model.Module, 0)
	_ = repo.db.read(ctx, func(t *tables) error {
		for _, m := range t.modules {
			if m.CourseID == courseID {
				mods = append(mods, m)
			}
		}
		return nil
	})
	sort.Slice(mods, func(i, j int) bool {
		if mods[i].SortOrder == mods[j].SortOrder {
			return mods[i].ID < mods[j].ID
		}
		return mods[i].SortOrder < mods[j].SortOrder
	})
	return mods, nil
}

func (repo *courseRepository) DeleteModule(ctx context.Context, id string) error {
	return repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.modules[id]; !ok {
			return core.ErrNotFound
		}
		deleteModule(t, id)
		return nil
	})
}

func (repo *courseRepository) DeleteCourseModules(ctx context.Context, courseID string) (int, error) {
	var n int
	err := repo.db.write(ctx, func(t *tables) error {
		n = deleteCourseModules(t, courseID)
		return nil
	})
	return n, err
}

func deleteCourseModules(t *tables, courseID string) int {
	var n int
	for id, m := range t.modules {
		if m.CourseID == courseID {
			deleteModule(t, id)
			n++
		}
	}
	return n
}

func deleteModule(t *tables, id string) {
	for lid, l := range t.lessons {
		if l.ModuleID == id {
			delete(t.lessons, lid)
		}
	}
	delete(t.modules, id)
}

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn model.Lesson) (model.Lesson, error) {
	err := repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.lessons[lsn.ID]; ok {
			return violation(lessonsPKey)
		}
		if _, ok := t.modules[lsn.ModuleID]; !ok {
			return violation(lessonsModuleFKey)
		}
		if lsn.DurationMinutes.Valid && lsn.DurationMinutes.Int < 0 {
			return violation(lessonsDurationCheck)
		}
		t.lessons[lsn.ID] = lsn
		return nil
	})
	if err != nil {
		return model.Lesson{}, err
	}
	return lsn, nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id string) (model.Lesson, error) {
	var lsn model.Lesson
	err := repo.db.read(ctx, func(t *tables) error {
		var ok bool
		if lsn, ok = t.lessons[id]; !ok {
			return core.ErrNotFound
		}
		return nil
	})
	return lsn, err
}

// QueryLessons returns the lessons of the given modules, grouped in the order of moduleIDs then by sort order.
func (repo *courseRepository) QueryLessons(ctx context.Context, moduleIDs ...string) ([]model.Lesson, error) {
	rank := make(map[string]int, len(moduleIDs))
	for i, id := range moduleIDs {
		rank[id] = i
	}

	lessons := make([]model.Lesson, 0)
	_ = repo.db.read(ctx, func(t *tables) error {
		for _, l := range t.lessons {
			if _, ok := rank[l.ModuleID]; ok {
				lessons = append(lessons, l)
			}
		}
		return nil
	})
	sort.Slice(lessons, func(i, j int) bool {
		li, lj := lessons[i], lessons[j]
		if rank[li.ModuleID] != rank[lj.ModuleID] {
			return rank[li.ModuleID] < rank[lj.ModuleID]
		}
		if li.SortOrder == lj.SortOrder {
			return li.ID < lj.ID
		}
		return li.SortOrder < lj.SortOrder
	})
	return lessons, nil
}

func (repo *courseRepository) DeleteLesson(ctx context.Context, id string) error {
	return repo.db.write(ctx, func(t *tables) error {
		if _, ok := t.lessons[id]; !ok {
			return core.ErrNotFound
		}
		delete(t.lessons, id)
		return nil
	})
}
