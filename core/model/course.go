package model

import (
	"time"

	"github.com/volatiletech/null/v8"
)

type Course struct {
	ID               string       `json:"id" db:"id"`
	Title            string       `json:"title" db:"title"`
	Slug             string       `json:"slug" db:"slug"`
	Description      string       `json:"description" db:"description"`
	ShortDescription string       `json:"short_description" db:"short_description"`
	ThumbnailURL     string       `json:"thumbnail_url" db:"thumbnail_url"`
	Price            float64      `json:"price" db:"price"`
	OriginalPrice    null.Float64 `json:"original_price" db:"original_price"`
	IsPublished      bool         `json:"is_published" db:"is_published"`
	CreatedBy        string       `json:"created_by" db:"created_by"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"` // UTC
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"` // UTC
}

type Module struct {
	ID          string    `json:"id" db:"id"`
	CourseID    string    `json:"course_id" db:"course_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC

	Lessons []Lesson `json:"lessons,omitempty" db:"-"`
}

type Lesson struct {
	ID              string    `json:"id" db:"id"`
	ModuleID        string    `json:"module_id" db:"module_id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	VideoURL        string    `json:"video_url" db:"video_url"`
	DurationMinutes null.Int  `json:"duration_minutes" db:"duration_minutes"`
	SortOrder       int       `json:"sort_order" db:"sort_order"`
	IsPreview       bool      `json:"is_preview" db:"is_preview"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"` // UTC
}
