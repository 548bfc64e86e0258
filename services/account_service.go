package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/gradebook/models"
	"github.com/upb/gradebook/repositories"
	"github.com/upb/gradebook/utils"
	"go.uber.org/zap"
)

// PasswordHasher produces the stored form of a raw secret
type PasswordHasher interface {
	Hash(raw string) (string, error)
}

// RegisterInput is the self-service registration form
type RegisterInput struct {
	Username string `form:"username" validate:"required,alphanum,min=3,max=50"`
	Password string `form:"password" validate:"required,min=6,max=72"`
	Email    string `form:"email" validate:"omitempty,email,max=255"`
}

// UpdateAccountInput is the administrator's account edit form
type UpdateAccountInput struct {
	Username string `form:"username" validate:"required,alphanum,min=3,max=50"`
	Email    string `form:"email" validate:"omitempty,email,max=255"`
}

// AccountService handles registration and account administration
type AccountService struct {
	accounts repositories.AccountRepository
	tx       repositories.TransactionManager
	hasher   PasswordHasher
	logger   *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(accounts repositories.AccountRepository, tx repositories.TransactionManager, hasher PasswordHasher, logger *zap.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		tx:       tx,
		hasher:   hasher,
		logger:   logger,
	}
}

// Register creates a USER account. Duplicate usernames yield ErrDuplicateUsername.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.Account, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := utils.ValidateStruct(&input); err != nil {
		return nil, validationError(err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	account := models.NewAccount(input.Username, input.Email, hash, models.AccountRoleUser)

	err = s.tx.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		exists, err := s.accounts.ExistsByUsername(ctx, account.Username)
		if err != nil {
			return WrapInternal("failed to check username", err)
		}
		if exists {
			return ErrDuplicateUsername
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrDuplicateUsername
			}
			return WrapInternal("failed to create account", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Info("registration rejected",
			zap.String("username", account.Username),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("account registered",
		zap.String("id", account.ID.String()),
		zap.String("username", account.Username))
	return account, nil
}

// List returns every account
func (s *AccountService) List(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, WrapInternal("failed to list accounts", err)
	}
	return accounts, nil
}

// Get returns one account
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, WrapInternal("failed to get account", err)
	}
	return account, nil
}

// Update changes an account's username and email. The password and role
// are left untouched.
func (s *AccountService) Update(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*models.Account, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := utils.ValidateStruct(&input); err != nil {
		return nil, validationError(err)
	}

	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	account.Username = input.Username
	account.Email = input.Email
	account.UpdatedAt = time.Now().UTC()

	if err := s.accounts.Update(ctx, account); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrAccountNotFound
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, ErrDuplicateUsername
		}
		return nil, WrapInternal("failed to update account", err)
	}

	s.logger.Info("account updated",
		zap.String("id", account.ID.String()),
		zap.String("username", account.Username))
	return account, nil
}

// Delete removes an account together with its grades
func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAccountNotFound
		}
		return WrapInternal("failed to delete account", err)
	}

	s.logger.Info("account deleted", zap.String("id", id.String()))
	return nil
}

// validationError converts a validator failure into a DomainError carrying
// the per-field messages.
func validationError(err error) error {
	domainErr := NewDomainError(ErrorTypeValidation, "invalid input", err)
	for field, msg := range utils.GetValidationFields(err) {
		domainErr.WithDetail(field, msg)
	}
	return domainErr
}
