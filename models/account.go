package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountRole is the role column as stored, with its authority prefix.
type AccountRole string

const (
	AccountRoleAdmin AccountRole = "ROLE_ADMIN"
	AccountRoleUser  AccountRole = "ROLE_USER"
)

// Account represents a login identity stored in the users table
type Account struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	Username     string      `json:"username" db:"username"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Role         AccountRole `json:"role" db:"role"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Account model
func (Account) TableName() string {
	return "users"
}

// NewAccount creates a new Account instance
func NewAccount(username, email, passwordHash string, role AccountRole) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsAdmin returns true if the account has the admin role
func (a *Account) IsAdmin() bool {
	return a.Role == AccountRoleAdmin
}
