package sqlxdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/model"
)

const (
	courseColumns = "id, title, slug, description, short_description, thumbnail_url, price, original_price, " +
		"is_published, created_by, created_at, updated_at"
	moduleColumns = "id, course_id, title, description, sort_order, created_at"
	lessonColumns = "id, module_id, title, description, video_url, duration_minutes, sort_order, is_preview, created_at"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs model.Course) (model.Course, error) {
	var created model.Course
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &created,
		`INSERT INTO courses (`+courseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+courseColumns,
		crs.ID, crs.Title, crs.Slug, crs.Description, crs.ShortDescription, crs.ThumbnailURL, crs.Price,
		crs.OriginalPrice, crs.IsPublished, crs.CreatedBy, crs.CreatedAt, crs.UpdatedAt)
	return created, trapErr(err, "inserting course")
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (model.Course, error) {
	var (
		crs model.Course
		err error
	)
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return model.Course{}, core.ErrNotFound
		}
		err = sqlx.GetContext(ctx, repo.db.exec(ctx), &crs,
			`SELECT `+courseColumns+` FROM courses WHERE id = $1`, filter.ID)
	case filter.Slug != "":
		err = sqlx.GetContext(ctx, repo.db.exec(ctx), &crs,
			`SELECT `+courseColumns+` FROM courses WHERE slug = $1`, filter.Slug)
	default:
		return model.Course{}, core.ErrNotFound
	}
	return crs, trapErr(err, "selecting course")
}

// likeEscaper makes a search term match literally inside a LIKE pattern (backslash is the default escape).
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering ...core.DBOrdering) ([]model.Course, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
			where = append(where, "title ILIKE $"+strconv.Itoa(len(args)))
		}
		if filter.IsPublished != nil {
			args = append(args, *filter.IsPublished)
			where = append(where, "is_published = $"+strconv.Itoa(len(args)))
		}
	}

	q := `SELECT ` + courseColumns + ` FROM courses`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(core.AllowedOrderings(ordering, course.OrderingFields...), "created_at DESC, id")

	courses := make([]model.Course, 0)
	if err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &courses, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	return courses, nil
}

// UpdateCourse saves every mutable column; updated_at is set by the database.
func (repo *courseRepository) UpdateCourse(ctx context.Context, crs model.Course) (model.Course, error) {
	if !validID(crs.ID) {
		return model.Course{}, core.ErrNotFound
	}
	var updated model.Course
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &updated,
		`UPDATE courses SET
			title = $2, slug = $3, description = $4, short_description = $5, thumbnail_url = $6,
			price = $7, original_price = $8, is_published = $9
		WHERE id = $1
		RETURNING `+courseColumns,
		crs.ID, crs.Title, crs.Slug, crs.Description, crs.ShortDescription, crs.ThumbnailURL,
		crs.Price, crs.OriginalPrice, crs.IsPublished)
	return updated, trapErr(err, "updating course")
}

// DeleteCourse cascades to modules, lessons, enrollments and reviews.
func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if !validID(id) {
		return core.ErrNotFound
	}
	res, err := repo.db.exec(ctx).ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return trapErr(err, "deleting course")
	}
	return mustAffect(res, "deleting course")
}

func (repo *courseRepository) CreateModule(ctx context.Context, mod model.Module) (model.Module, error) {
	var created model.Module
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &created,
		`INSERT INTO modules (`+moduleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+moduleColumns,
		mod.ID, mod.CourseID, mod.Title, mod.Description, mod.SortOrder, mod.CreatedAt)
	return created, trapErr(err, "inserting module")
}

func (repo *courseRepository) GetModule(ctx context.Context, id string) (model.Module, error) {
	if !validID(id) {
		return model.Module{}, core.ErrNotFound
	}
	var mod model.Module
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &mod,
		`SELECT `+moduleColumns+` FROM modules WHERE id = $1`, id)
	return mod, trapErr(err, "selecting module")
}

func (repo *courseRepository) QueryModules(ctx context.Context, courseID string) ([]model.Module, error) {
	mods := make([]model.Module, 0)
	if !validID(courseID) {
		return mods, nil
	}
	err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &mods,
		`SELECT `+moduleColumns+` FROM modules WHERE course_id = $1 ORDER BY sort_order, id`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting modules")
	}
	return mods, nil
}

func (repo *courseRepository) DeleteModule(ctx context.Context, id string) error {
	if !validID(id) {
		return core.ErrNotFound
	}
	res, err := repo.db.exec(ctx).ExecContext(ctx, `DELETE FROM modules WHERE id = $1`, id)
	if err != nil {
		return trapErr(err, "deleting module")
	}
	return mustAffect(res, "deleting module")
}

func (repo *courseRepository) DeleteCourseModules(ctx context.Context, courseID string) (int, error) {
	if !validID(courseID) {
		return 0, nil
	}
	res, err := repo.db.exec(ctx).ExecContext(ctx, `DELETE FROM modules WHERE course_id = $1`, courseID)
	if err != nil {
		return 0, trapErr(err, "deleting course modules")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting course modules")
	}
	return int(n), nil
}

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn model.Lesson) (model.Lesson, error) {
	var created model.Lesson
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &created,
		`INSERT INTO lessons (`+lessonColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+lessonColumns,
		lsn.ID, lsn.ModuleID, lsn.Title, lsn.Description, lsn.VideoURL, lsn.DurationMinutes,
		lsn.SortOrder, lsn.IsPreview, lsn.CreatedAt)
	return created, trapErr(err, "inserting lesson")
}

func (repo *courseRepository) GetLesson(ctx context.Context, id string) (model.Lesson, error) {
	if !validID(id) {
		return model.Lesson{}, core.ErrNotFound
	}
	var lsn model.Lesson
	err := sqlx.GetContext(ctx, repo.db.exec(ctx), &lsn,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id)
	return lsn, trapErr(err, "selecting lesson")
}

// QueryLessons returns the lessons of the given modules, grouped in the order of moduleIDs then by sort order.
func (repo *courseRepository) QueryLessons(ctx context.Context, moduleIDs ...string) ([]model.Lesson, error) {
	lessons := make([]model.Lesson, 0)
	ids := make([]string, 0, len(moduleIDs))
	for _, id := range moduleIDs {
		if validID(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return lessons, nil
	}

	err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &lessons,
		`SELECT `+lessonColumns+` FROM lessons
		WHERE module_id = ANY($1::uuid[])
		ORDER BY array_position($1::uuid[], module_id), sort_order, id`,
		pq.Array(ids))
	if err != nil {
		return nil, errors.Wrap(err, "selecting lessons")
	}
	return lessons, nil
}

func (repo *courseRepository) DeleteLesson(ctx context.Context, id string) error {
	if !validID(id) {
		return core.ErrNotFound
	}
	res, err := repo.db.exec(ctx).ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return trapErr(err, "deleting lesson")
	}
	return mustAffect(res, "deleting lesson")
}
