package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive   EnrollmentStatus = "active"
	EnrollmentExpired  EnrollmentStatus = "expired"
	EnrollmentRefunded EnrollmentStatus = "refunded"
)

var EnrollmentStatuses = []EnrollmentStatus{EnrollmentActive, EnrollmentExpired, EnrollmentRefunded}

func (s EnrollmentStatus) Valid() bool {
	for _, st := range EnrollmentStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type Enrollment struct {
	ID          string           `json:"id" db:"id"`
	PrincipalID string           `json:"principal_id" db:"principal_id"`
	CourseID    string           `json:"course_id" db:"course_id"`
	Status      EnrollmentStatus `json:"status" db:"status"`
	EnrolledAt  time.Time        `json:"enrolled_at" db:"enrolled_at"` // UTC
}

func (e Enrollment) IsActive() bool { return e.Status == EnrollmentActive }
