package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/gradebook/models"
	"github.com/upb/gradebook/repositories"
	"go.uber.org/zap"
)

// CourseRepository implements repositories.CourseRepository
type CourseRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *DB, logger *zap.Logger) repositories.CourseRepository {
	return &CourseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new course
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (id, code, name, credits, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		course.ID,
		course.Code,
		course.Name,
		course.Credits,
		course.CreatedAt,
	)
	if err != nil {
		return mapError("create course", err)
	}

	r.logger.Debug("course created", zap.String("id", course.ID.String()), zap.String("code", course.Code))
	return nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	query := `SELECT id, code, name, credits, created_at FROM courses WHERE id = $1`

	course := &models.Course{}
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Code,
		&course.Name,
		&course.Credits,
		&course.CreatedAt,
	)
	if err != nil {
		return nil, mapError("get course", err)
	}

	return course, nil
}

// List retrieves all courses ordered by code
func (r *CourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	query := `SELECT id, code, name, credits, created_at FROM courses ORDER BY code`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, mapError("query courses", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		course := &models.Course{}
		if err := rows.Scan(
			&course.ID,
			&course.Code,
			&course.Name,
			&course.Credits,
			&course.CreatedAt,
		); err != nil {
			return nil, mapError("scan course", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError("iterate courses", err)
	}

	return courses, nil
}

// Update stores a course's code, name and credits
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses
		SET code = $2,
		    name = $3,
		    credits = $4
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		course.ID,
		course.Code,
		course.Name,
		course.Credits,
	)
	if err != nil {
		return mapError("update course", err)
	}
	if err := requireAffected("update course", result); err != nil {
		return err
	}

	r.logger.Debug("course updated", zap.String("id", course.ID.String()))
	return nil
}

// Delete removes a course; its grades go with it
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return mapError("delete course", err)
	}
	if err := requireAffected("delete course", result); err != nil {
		return err
	}

	r.logger.Debug("course deleted", zap.String("id", id.String()))
	return nil
}
