package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/gradebook/models"
	"github.com/upb/gradebook/repositories"
	"github.com/upb/gradebook/utils"
	"go.uber.org/zap"
)

// CreateCourseInput is the payload for a new course
type CreateCourseInput struct {
	Code    string `json:"course_code" validate:"required,max=50"`
	Name    string `json:"course_name" validate:"required,max=255"`
	Credits int    `json:"credits" validate:"gte=0,lte=30"`
}

// UpdateCourseInput replaces a course's editable fields
type UpdateCourseInput = CreateCourseInput

// CourseService manages the course catalogue
type CourseService struct {
	courses repositories.CourseRepository
	logger  *zap.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(courses repositories.CourseRepository, logger *zap.Logger) *CourseService {
	return &CourseService{
		courses: courses,
		logger:  logger,
	}
}

// List returns all courses
func (s *CourseService) List(ctx context.Context) ([]*models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, WrapInternal("failed to list courses", err)
	}
	if courses == nil {
		courses = []*models.Course{}
	}
	return courses, nil
}

// Get returns one course
func (s *CourseService) Get(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, WrapInternal("failed to get course", err)
	}
	return course, nil
}

// Create validates and stores a new course
func (s *CourseService) Create(ctx context.Context, input CreateCourseInput) (*models.Course, error) {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	input.Name = strings.TrimSpace(input.Name)

	if err := utils.ValidateStruct(&input); err != nil {
		return nil, validationError(err)
	}

	course := models.NewCourse(input.Code, input.Name, input.Credits)
	if err := s.courses.Create(ctx, course); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateCourseCode
		}
		return nil, WrapInternal("failed to create course", err)
	}

	s.logger.Info("course created", zap.String("id", course.ID.String()), zap.String("code", course.Code))
	return course, nil
}

// Update replaces a course's code, name and credits
func (s *CourseService) Update(ctx context.Context, id uuid.UUID, input UpdateCourseInput) (*models.Course, error) {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	input.Name = strings.TrimSpace(input.Name)

	if err := utils.ValidateStruct(&input); err != nil {
		return nil, validationError(err)
	}

	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Code = input.Code
	course.Name = input.Name
	course.Credits = input.Credits

	if err := s.courses.Update(ctx, course); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrCourseNotFound
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, ErrDuplicateCourseCode
		}
		return nil, WrapInternal("failed to update course", err)
	}

	s.logger.Info("course updated", zap.String("id", course.ID.String()), zap.String("code", course.Code))
	return course, nil
}

// Delete removes a course together with its grades
func (s *CourseService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCourseNotFound
		}
		return WrapInternal("failed to delete course", err)
	}

	s.logger.Info("course deleted", zap.String("id", id.String()))
	return nil
}
