package models

import (
	"time"

	"github.com/google/uuid"
)

// Grade is one mark a student recorded for a course
type Grade struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CourseID  uuid.UUID `json:"course_id" db:"course_id"`
	AccountID uuid.UUID `json:"student_id" db:"user_id"`
	Value     float64   `json:"grade" db:"grade"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Grade model
func (Grade) TableName() string {
	return "grades"
}

// NewGrade creates a new Grade instance
func NewGrade(courseID, accountID uuid.UUID, value float64) *Grade {
	now := time.Now().UTC()
	return &Grade{
		ID:        uuid.New(),
		CourseID:  courseID,
		AccountID: accountID,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Average returns the mean grade value, or 0 when there are no grades
func Average(grades []*Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g.Value
	}
	return sum / float64(len(grades))
}
