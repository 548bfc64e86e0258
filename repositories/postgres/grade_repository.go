package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/gradebook/models"
	"github.com/upb/gradebook/repositories"
	"go.uber.org/zap"
)

const gradeColumns = `id, course_id, user_id, grade, created_at, updated_at`

// GradeRepository implements repositories.GradeRepository
type GradeRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewGradeRepository creates a new grade repository
func NewGradeRepository(db *DB, logger *zap.Logger) repositories.GradeRepository {
	return &GradeRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new grade
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	query := `
		INSERT INTO grades (` + gradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		grade.ID,
		grade.CourseID,
		grade.AccountID,
		grade.Value,
		grade.CreatedAt,
		grade.UpdatedAt,
	)
	if err != nil {
		return mapError("create grade", err)
	}

	r.logger.Debug("grade created",
		zap.String("id", grade.ID.String()),
		zap.String("course_id", grade.CourseID.String()))
	return nil
}

// GetByID retrieves a grade by ID
func (r *GradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Grade, error) {
	query := `SELECT ` + gradeColumns + ` FROM grades WHERE id = $1`

	grade := &models.Grade{}
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&grade.ID,
		&grade.CourseID,
		&grade.AccountID,
		&grade.Value,
		&grade.CreatedAt,
		&grade.UpdatedAt,
	)
	if err != nil {
		return nil, mapError("get grade", err)
	}

	return grade, nil
}

// ListByCourseAndAccount retrieves one student's grades for a course, newest first
func (r *GradeRepository) ListByCourseAndAccount(ctx context.Context, courseID, accountID uuid.UUID) ([]*models.Grade, error) {
	query := `
		SELECT ` + gradeColumns + `
		FROM grades
		WHERE course_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, courseID, accountID)
	if err != nil {
		return nil, mapError("query grades", err)
	}
	defer rows.Close()

	var grades []*models.Grade
	for rows.Next() {
		grade := &models.Grade{}
		if err := rows.Scan(
			&grade.ID,
			&grade.CourseID,
			&grade.AccountID,
			&grade.Value,
			&grade.CreatedAt,
			&grade.UpdatedAt,
		); err != nil {
			return nil, mapError("scan grade", err)
		}
		grades = append(grades, grade)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError("iterate grades", err)
	}

	return grades, nil
}

// Delete removes a grade
func (r *GradeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return mapError("delete grade", err)
	}
	if err := requireAffected("delete grade", result); err != nil {
		return err
	}

	r.logger.Debug("grade deleted", zap.String("id", id.String()))
	return nil
}
