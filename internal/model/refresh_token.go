package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore persists refresh-token records. All mutating operations
// are atomic at the storage layer; callers never read a record, check its
// state in memory and write it back.
type RefreshTokenStore interface {
	// Insert stores a new record. A secret-hash collision is reported as
	// ErrSecretCollision and must be treated as an integrity violation.
	Insert(ctx context.Context, token RefreshToken) error
	// TryConsume marks the record matching secretHash as used, in a single
	// conditional update, and returns its pre-transition state. When the
	// record cannot be consumed the specific reason is returned instead:
	// ErrNotFound, ErrTokenExpired, ErrTokenRevoked or ErrTokenUsed. For
	// ErrTokenUsed and ErrTokenRevoked the record is returned alongside the
	// error so the caller can identify the owner.
	TryConsume(ctx context.Context, secretHash []byte) (RefreshToken, error)
	// RevokeAllForUser revokes every record of the user that is not already
	// revoked and returns the number of records affected. Idempotent.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// TxManager runs a function inside a storage transaction. Store operations
// invoked with the context passed to fn join that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RefreshToken is a durable record of an issued refresh token. Only the
// sha256 hash of the secret is stored. Records transition Active -> Consumed
// (used) or Active -> Revoked; both are terminal. Expired records are kept
// until garbage-collected out of band.
type RefreshToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	SecretHash []byte
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Used       bool
	RevokedAt  *time.Time
	ParentID   *uuid.UUID
	UpdatedAt  time.Time
}

// Window returns the lifetime the record was issued with. A rotated child
// inherits this window from its parent.
func (t RefreshToken) Window() time.Duration {
	return t.ExpiresAt.Sub(t.CreatedAt)
}

// NewTokenID returns a time-ordered identifier for a refresh-token record.
func NewTokenID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 fails only when the entropy source does; fall back to v4.
		return uuid.New()
	}
	return id
}
