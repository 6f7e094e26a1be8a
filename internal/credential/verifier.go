// Package credential implements password verification and updates on top of
// the user store, with bcrypt hashing and an account lockout counter.
package credential

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/feedline/auth-server/internal/logger"
	"github.com/feedline/auth-server/internal/model"
)

// dummyHash is compared against the submitted password when the user does
// not exist, so the unknown-user path costs the same as a real mismatch.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Policy bounds what SetPassword accepts.
type Policy struct {
	MinLength int
}

// Lockout configures the consecutive-failure lockout.
type Lockout struct {
	MaxAttempts int
	Window      time.Duration
}

// Verifier validates and rotates stored passwords.
type Verifier struct {
	users   model.UserStore
	policy  Policy
	lockout Lockout
	cost    int
	logger  *logger.Logger
}

var _ model.CredentialVerifier = (*Verifier)(nil)

func NewVerifier(users model.UserStore, policy Policy, lockout Lockout, bcryptCost int, logger *logger.Logger) *Verifier {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Verifier{users: users, policy: policy, lockout: lockout, cost: bcryptCost, logger: logger}
}

// VerifyPassword checks the submitted password against the stored hash.
// Unknown users burn a bcrypt comparison against a fixed hash so their
// timing matches the mismatch path, then fail with the same error.
func (v *Verifier) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := v.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return model.ErrInvalidCredentials
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if user.Locked(time.Now()) {
		return model.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		locked, recErr := v.users.RecordFailure(ctx, userID, v.lockout.MaxAttempts, time.Now().Add(v.lockout.Window))
		if recErr != nil {
			v.logger.Error("failed to record auth failure", "user_id", userID, "error", recErr.Error())
		} else if locked {
			v.logger.Warn("account locked after repeated auth failures", "user_id", userID)
		}
		return model.ErrInvalidCredentials
	}

	return nil
}

// SetPassword validates the new password against the policy and persists its
// hash, bumping the password epoch.
func (v *Verifier) SetPassword(ctx context.Context, userID uuid.UUID, password string) error {
	if err := v.checkPolicy(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return v.users.SetPassword(ctx, userID, string(hash))
}

func (v *Verifier) ResetFailureCounter(ctx context.Context, userID uuid.UUID) error {
	return v.users.ResetFailures(ctx, userID)
}

func (v *Verifier) checkPolicy(password string) error {
	if len(password) < v.policy.MinLength {
		return model.ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return model.ErrWeakPassword
	}
	return nil
}
