package course

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
)

// Orderable fields of QueryCourses.
var OrderingFields = []string{"title", "slug", "price", "created_at", "updated_at"}

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs model.Course) (model.Course, error)
		GetCourse(ctx context.Context, filter GetFilter) (model.Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]model.Course, error)
		UpdateCourse(ctx context.Context, crs model.Course) (model.Course, error)
		DeleteCourse(ctx context.Context, id string) error

		CreateModule(ctx context.Context, mod model.Module) (model.Module, error)
		GetModule(ctx context.Context, id string) (model.Module, error)
		QueryModules(ctx context.Context, courseID string) ([]model.Module, error)
		DeleteModule(ctx context.Context, id string) error
		// DeleteCourseModules deletes every module of the course, and their lessons.
		DeleteCourseModules(ctx context.Context, courseID string) (int, error)

		CreateLesson(ctx context.Context, lsn model.Lesson) (model.Lesson, error)
		GetLesson(ctx context.Context, id string) (model.Lesson, error)
		QueryLessons(ctx context.Context, moduleIDs ...string) ([]model.Lesson, error)
		DeleteLesson(ctx context.Context, id string) error
	}

	GetFilter struct {
		ID   string
		Slug string
	}

	QueryFilter struct {
		Search      string // title, case-insensitive
		IsPublished *bool
	}

	// Outline is a course with the modules and lessons the caller may see, in sort order.
	Outline struct {
		model.Course
		Modules []model.Module `json:"modules"`
	}

	NewCourse struct {
		Title            string      `json:"title" validate:"required,notblank,max=200"`
		Slug             string      `json:"slug" validate:"required,slug,max=200"`
		Description      string      `json:"description"`
		ShortDescription string      `json:"short_description" validate:"max=500"`
		ThumbnailURL     string      `json:"thumbnail_url" validate:"omitempty,url"`
		Price            float64     `json:"price" validate:"gte=0"`
		OriginalPrice    *float64    `json:"original_price" validate:"omitempty,gte=0"`
		IsPublished      bool        `json:"is_published"`
		Modules          []NewModule `json:"modules" validate:"dive"`
	}

	// UpdateCourse only changes the fields that are set.
	// A non-nil Modules (even empty) replaces the whole structure of the course.
	UpdateCourse struct {
		Title            *string              `json:"title" validate:"omitempty,notblank,max=200"`
		Slug             *string              `json:"slug" validate:"omitempty,slug,max=200"`
		Description      *string              `json:"description"`
		ShortDescription *string              `json:"short_description" validate:"omitempty,max=500"`
		ThumbnailURL     *string              `json:"thumbnail_url" validate:"omitempty,url"`
		Price            *float64             `json:"price" validate:"omitempty,gte=0"`
		OriginalPrice    core.OptionalFloat64 `json:"original_price" validate:"omitempty,gte=0"` // null clears it
		IsPublished      *bool                `json:"is_published"`
		Modules          []NewModule          `json:"modules" validate:"dive"`
	}

	NewModule struct {
		Title       string      `json:"title" validate:"required,notblank,max=200"`
		Description string      `json:"description"`
		Lessons     []NewLesson `json:"lessons" validate:"dive"`
	}

	NewLesson struct {
		Title           string `json:"title" validate:"required,notblank,max=200"`
		Description     string `json:"description"`
		VideoURL        string `json:"video_url"`
		DurationMinutes *int   `json:"duration_minutes" validate:"omitempty,gte=0"`
		IsPreview       bool   `json:"is_preview"`
	}

	// Structure is the body of a structure re-save.
	Structure struct {
		Modules []NewModule `json:"modules" validate:"dive"`
	}
)

func (nc NewCourse) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, nc)
}

func (uc UpdateCourse) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, uc)
}

func (st Structure) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, st)
}
