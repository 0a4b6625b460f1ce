package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID          string    `json:"id" db:"id"`
	PrincipalID string    `json:"principal_id" db:"principal_id"`
	CourseID    string    `json:"course_id" db:"course_id"`
	Rating      int       `json:"rating" db:"rating"`
	Comment     string    `json:"comment" db:"comment"`
	IsApproved  bool      `json:"is_approved" db:"is_approved"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
}
