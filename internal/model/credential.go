package model

import (
	"context"

	"github.com/google/uuid"
)

// CredentialVerifier validates and updates stored passwords and tracks
// consecutive failures.
type CredentialVerifier interface {
	// VerifyPassword returns nil on match, ErrAccountLocked while the lockout
	// window is open and ErrInvalidCredentials on mismatch or unknown user.
	// A mismatch is recorded against the failure counter.
	VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error
	// SetPassword applies the password policy and stores the new hash,
	// bumping the password epoch. Returns ErrWeakPassword when the policy
	// rejects the value.
	SetPassword(ctx context.Context, userID uuid.UUID, password string) error
	ResetFailureCounter(ctx context.Context, userID uuid.UUID) error
}
