package models

import (
	"time"

	"github.com/google/uuid"
)

// Course represents a course offered in the gradebook
type Course struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Code      string    `json:"course_code" db:"code"`
	Name      string    `json:"course_name" db:"name"`
	Credits   int       `json:"credits" db:"credits"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Course model
func (Course) TableName() string {
	return "courses"
}

// NewCourse creates a new Course instance
func NewCourse(code, name string, credits int) *Course {
	return &Course{
		ID:        uuid.New(),
		Code:      code,
		Name:      name,
		Credits:   credits,
		CreatedAt: time.Now().UTC(),
	}
}
