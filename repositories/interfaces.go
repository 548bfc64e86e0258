package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/gradebook/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("record already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Repositories called with the ctx passed to fn run inside the transaction.
	// Commits if fn succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// AccountRepository handles login account data operations
type AccountRepository interface {
	// Create inserts an account; ErrDuplicate when the username is taken
	Create(ctx context.Context, account *models.Account) error

	// GetByID retrieves an account by ID; ErrNotFound when absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)

	// GetByUsername retrieves an account by username; ErrNotFound when absent
	GetByUsername(ctx context.Context, username string) (*models.Account, error)

	// ExistsByUsername reports whether the username is taken
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// List retrieves all accounts ordered by username
	List(ctx context.Context) ([]*models.Account, error)

	// Update stores username and email; ErrNotFound when absent, ErrDuplicate when the username is taken
	Update(ctx context.Context, account *models.Account) error

	// Delete removes an account and its grades; ErrNotFound when absent
	Delete(ctx context.Context, id uuid.UUID) error
}

// CourseRepository handles course data operations
type CourseRepository interface {
	// Create inserts a course; ErrDuplicate when the code is taken
	Create(ctx context.Context, course *models.Course) error

	// GetByID retrieves a course by ID; ErrNotFound when absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)

	// List retrieves all courses ordered by code
	List(ctx context.Context) ([]*models.Course, error)

	// Update stores code, name and credits; ErrNotFound when absent, ErrDuplicate when the code is taken
	Update(ctx context.Context, course *models.Course) error

	// Delete removes a course and its grades; ErrNotFound when absent
	Delete(ctx context.Context, id uuid.UUID) error
}

// GradeRepository handles grade data operations
type GradeRepository interface {
	// Create inserts a grade
	Create(ctx context.Context, grade *models.Grade) error

	// GetByID retrieves a grade by ID; ErrNotFound when absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.Grade, error)

	// ListByCourseAndAccount retrieves one student's grades for a course, newest first
	ListByCourseAndAccount(ctx context.Context, courseID, accountID uuid.UUID) ([]*models.Grade, error)

	// Delete removes a grade; ErrNotFound when absent
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Accounts AccountRepository
	Courses  CourseRepository
	Grades   GradeRepository
}
