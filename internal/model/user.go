package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for user accounts and their
// credential state.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	// SetPassword replaces the stored hash, bumps the password epoch, clears
	// the must-change flag and resets the failure counter in one statement.
	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// RecordFailure atomically increments the failed-attempt counter. When the
	// incremented value reaches maxAttempts the account is locked until
	// lockedUntil and the counter resets. Returns whether the account is now
	// locked.
	RecordFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockedUntil time.Time) (bool, error)
	ResetFailures(ctx context.Context, id uuid.UUID) error
}

// User represents a stored user account with its credential state.
type User struct {
	ID                 uuid.UUID
	Email              string
	PasswordHash       string
	PasswordEpoch      int
	FailedAttempts     int
	LockedUntil        *time.Time
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Locked reports whether the account lockout window is still open at now.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
