package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/gradebook/models"
	"github.com/upb/gradebook/repositories"
	"github.com/upb/gradebook/utils"
	"go.uber.org/zap"
)

// AddGradeInput is a mark on the 0.0 to 5.0 scale
type AddGradeInput struct {
	Value *float64 `json:"grade" form:"grade" validate:"required,gte=0,lte=5"`
}

// GradeService records students' own grades per course. Every operation is
// scoped to the calling student: nobody reads or removes another student's
// grades.
type GradeService struct {
	grades   repositories.GradeRepository
	courses  repositories.CourseRepository
	accounts repositories.AccountRepository
	tx       repositories.TransactionManager
	logger   *zap.Logger
}

// NewGradeService creates a new GradeService
func NewGradeService(grades repositories.GradeRepository, courses repositories.CourseRepository, accounts repositories.AccountRepository, tx repositories.TransactionManager, logger *zap.Logger) *GradeService {
	return &GradeService{
		grades:   grades,
		courses:  courses,
		accounts: accounts,
		tx:       tx,
		logger:   logger,
	}
}

// List returns the student's grades for a course, newest first
func (s *GradeService) List(ctx context.Context, courseID uuid.UUID, username string) ([]*models.Grade, error) {
	student, err := s.resolve(ctx, courseID, username)
	if err != nil {
		return nil, err
	}

	grades, err := s.grades.ListByCourseAndAccount(ctx, courseID, student.ID)
	if err != nil {
		return nil, WrapInternal("failed to list grades", err)
	}
	if grades == nil {
		grades = []*models.Grade{}
	}
	return grades, nil
}

// Average returns the mean of the student's grades for a course, 0 when
// there are none
func (s *GradeService) Average(ctx context.Context, courseID uuid.UUID, username string) (float64, error) {
	grades, err := s.List(ctx, courseID, username)
	if err != nil {
		return 0, err
	}
	return models.Average(grades), nil
}

// Add records a grade for the student in a course
func (s *GradeService) Add(ctx context.Context, courseID uuid.UUID, username string, input AddGradeInput) (*models.Grade, error) {
	if err := utils.ValidateStruct(&input); err != nil {
		return nil, validationError(err)
	}

	student, err := s.resolve(ctx, courseID, username)
	if err != nil {
		return nil, err
	}

	grade := models.NewGrade(courseID, student.ID, *input.Value)
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, WrapInternal("failed to create grade", err)
	}

	s.logger.Info("grade recorded",
		zap.String("id", grade.ID.String()),
		zap.String("course_id", courseID.String()),
		zap.String("username", username))
	return grade, nil
}

// Delete removes one of the student's own grades. A grade owned by someone
// else yields ErrNotGradeOwner and is left in place.
func (s *GradeService) Delete(ctx context.Context, courseID, gradeID uuid.UUID, username string) error {
	err := s.tx.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		student, err := s.resolve(ctx, courseID, username)
		if err != nil {
			return err
		}

		grade, err := s.grades.GetByID(ctx, gradeID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrGradeNotFound
			}
			return WrapInternal("failed to get grade", err)
		}
		if grade.CourseID != courseID {
			return ErrGradeNotFound
		}
		if grade.AccountID != student.ID {
			return ErrNotGradeOwner
		}

		if err := s.grades.Delete(ctx, gradeID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrGradeNotFound
			}
			return WrapInternal("failed to delete grade", err)
		}
		return nil
	})
	if err != nil {
		if IsForbiddenError(err) {
			s.logger.Warn("grade deletion refused",
				zap.String("grade_id", gradeID.String()),
				zap.String("username", username))
		}
		return err
	}

	s.logger.Info("grade deleted",
		zap.String("id", gradeID.String()),
		zap.String("username", username))
	return nil
}

// resolve checks the course exists and loads the calling student's account.
func (s *GradeService) resolve(ctx context.Context, courseID uuid.UUID, username string) (*models.Account, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, WrapInternal("failed to get course", err)
	}

	student, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, WrapInternal("failed to get account", err)
	}
	return student, nil
}
