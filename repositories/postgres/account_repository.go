package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/gradebook/models"
	"github.com/upb/gradebook/repositories"
	"go.uber.org/zap"
)

const accountColumns = `id, username, email, password_hash, role, created_at, updated_at`

// AccountRepository implements repositories.AccountRepository
type AccountRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB, logger *zap.Logger) repositories.AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO users (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return mapError("create account", err)
	}

	r.logger.Debug("account created",
		zap.String("id", account.ID.String()),
		zap.String("username", account.Username))
	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername retrieves an account by username
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM users WHERE username = $1`, username)
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Account, error) {
	executor := GetExecutor(ctx, r.db)
	account := &models.Account{}

	err := executor.QueryRowContext(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, mapError("get account", err)
	}

	return account, nil
}

// ExistsByUsername reports whether an account with username exists
func (r *AccountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, mapError("check account", err)
	}
	return exists, nil
}

// List retrieves all accounts ordered by username
func (r *AccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users ORDER BY username`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, mapError("query accounts", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account := &models.Account{}
		if err := rows.Scan(
			&account.ID,
			&account.Username,
			&account.Email,
			&account.PasswordHash,
			&account.Role,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, mapError("scan account", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError("iterate accounts", err)
	}

	return accounts, nil
}

// Update stores an account's username and email
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE users
		SET username = $2,
		    email = $3,
		    updated_at = $4
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.UpdatedAt,
	)
	if err != nil {
		return mapError("update account", err)
	}
	if err := requireAffected("update account", result); err != nil {
		return err
	}

	r.logger.Debug("account updated", zap.String("id", account.ID.String()))
	return nil
}

// Delete removes an account; its grades go with it
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError("delete account", err)
	}
	if err := requireAffected("delete account", result); err != nil {
		return err
	}

	r.logger.Debug("account deleted", zap.String("id", id.String()))
	return nil
}
