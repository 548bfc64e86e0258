package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/gradebook/models"
	"github.com/upb/gradebook/repositories"
)

// MockAccountRepository is a mock implementation of repositories.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *models.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockCourseRepository is a mock implementation of repositories.CourseRepository
type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	return m.Called(ctx, course).Error(0)
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *MockCourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Course), args.Error(1)
}

func (m *MockCourseRepository) Update(ctx context.Context, course *models.Course) error {
	return m.Called(ctx, course).Error(0)
}

func (m *MockCourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockGradeRepository is a mock implementation of repositories.GradeRepository
type MockGradeRepository struct {
	mock.Mock
}

func (m *MockGradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	return m.Called(ctx, grade).Error(0)
}

func (m *MockGradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Grade, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Grade), args.Error(1)
}

func (m *MockGradeRepository) ListByCourseAndAccount(ctx context.Context, courseID, accountID uuid.UUID) ([]*models.Grade, error) {
	args := m.Called(ctx, courseID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Grade), args.Error(1)
}

func (m *MockGradeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// inlineTxManager runs fn directly and records whether it committed.
type inlineTxManager struct {
	committed  bool
	rolledBack bool
}

func (m *inlineTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return &inlineTx{ctx: ctx, mgr: m}, nil
}

func (m *inlineTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, _ := m.Begin(ctx)
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type inlineTx struct {
	ctx context.Context
	mgr *inlineTxManager
}

func (t *inlineTx) Commit() error            { t.mgr.committed = true; return nil }
func (t *inlineTx) Rollback() error          { t.mgr.rolledBack = true; return nil }
func (t *inlineTx) Context() context.Context { return t.ctx }

// prefixHasher is a fast PasswordHasher for tests
type prefixHasher struct {
	err error
}

func (h prefixHasher) Hash(raw string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + raw, nil
}
