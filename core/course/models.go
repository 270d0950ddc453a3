package course

import "time"

// Status is the course lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Active reports whether assignments may still be created under the course.
func (s Status) Active() bool {
	return s == StatusDraft || s == StatusPublished
}

type Course struct {
	ID           string    `json:"id" db:"id"`
	InstructorID string    `json:"instructor_id" db:"instructor_id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	Status       Status    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// EnrollmentStatus gates a learner's access to a course's assignments and grades.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

type Enrollment struct {
	ID        string           `json:"id" db:"id"`
	CourseID  string           `json:"course_id" db:"course_id"`
	LearnerID string           `json:"learner_id" db:"learner_id"`
	Status    EnrollmentStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"` // UTC
}
