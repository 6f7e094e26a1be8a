package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/feedline/auth-server/internal/logger"
	"github.com/feedline/auth-server/internal/metrics"
	"github.com/feedline/auth-server/internal/model"
	"github.com/feedline/auth-server/internal/token"
)

// Windows holds the refresh-token lifetimes for plain and remember-me logins.
type Windows struct {
	Default  time.Duration
	Extended time.Duration
}

// Auth orchestrates the credential and token lifecycle: login, refresh-token
// rotation with replay detection, and password changes with session
// invalidation. Safe for concurrent use; every callers' races on the same
// refresh secret are resolved by the store's atomic TryConsume.
type Auth struct {
	users    model.UserStore
	tokens   model.RefreshTokenStore
	verifier model.CredentialVerifier
	issuer   model.TokenIssuer
	tx       model.TxManager
	metrics  *metrics.Metrics
	logger   *logger.Logger
	windows  Windows
}

func NewAuth(
	users model.UserStore,
	tokens model.RefreshTokenStore,
	verifier model.CredentialVerifier,
	issuer model.TokenIssuer,
	tx model.TxManager,
	m *metrics.Metrics,
	logger *logger.Logger,
	windows Windows,
) *Auth {
	return &Auth{
		users:    users,
		tokens:   tokens,
		verifier: verifier,
		issuer:   issuer,
		tx:       tx,
		metrics:  m,
		logger:   logger,
		windows:  windows,
	}
}

// Login verifies the password and issues a fresh access/refresh pair. An
// unknown email and a wrong password are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, password string, rememberMe bool) (model.Session, error) {
	if email == "" || password == "" {
		return model.Session{}, model.ErrValidation
	}

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		a.metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return model.Session{}, a.storeFailure("login: get user by email", err)
	}

	// On a miss user.ID is uuid.Nil; the verifier burns a comparison so the
	// two failure paths cost the same.
	if err := a.verifier.VerifyPassword(ctx, user.ID, password); err != nil {
		switch {
		case errors.Is(err, model.ErrAccountLocked):
			a.metrics.Logins.WithLabelValues(metrics.ResultLocked).Inc()
			a.logger.Info("login rejected: account locked", "user_id", user.ID)
			return model.Session{}, model.ErrAccountLocked
		case errors.Is(err, model.ErrInvalidCredentials):
			a.metrics.Logins.WithLabelValues(metrics.ResultDenied).Inc()
			a.logger.Info("login rejected: credentials mismatch", "email", email)
			return model.Session{}, model.ErrInvalidCredentials
		default:
			a.metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
			return model.Session{}, a.storeFailure("login: verify password", err)
		}
	}

	window := a.windows.Default
	if rememberMe {
		window = a.windows.Extended
	}

	sess, err := a.issuePair(ctx, user, window, nil)
	if err != nil {
		a.metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return model.Session{}, err
	}

	if err := a.verifier.ResetFailureCounter(ctx, user.ID); err != nil {
		// The session is already issued; a stale counter only shortens the
		// runway to lockout.
		a.logger.Warn("failed to reset failure counter", "user_id", user.ID, "error", err.Error())
	}

	a.metrics.Logins.WithLabelValues(metrics.ResultSuccess).Inc()
	a.logger.Info("login succeeded", "user_id", user.ID)

	return sess, nil
}

// Refresh rotates a refresh token: the presented secret is consumed and a new
// access/refresh pair is issued in the same transaction, so a cancelled call
// never leaves a consumed token without a child. Reuse of an already-consumed
// secret revokes every refresh token of the owner.
func (a *Auth) Refresh(ctx context.Context, refreshSecret string) (model.Session, error) {
	if refreshSecret == "" {
		return model.Session{}, model.ErrValidation
	}

	secretHash := token.HashSecret(refreshSecret)

	var sess model.Session
	var spent model.RefreshToken
	err := a.tx.WithinTx(ctx, func(ctx context.Context) error {
		parent, err := a.tokens.TryConsume(ctx, secretHash)
		if err != nil {
			// Keep the record for the replay path; the transaction is rolled
			// back but TryConsume mutated nothing on failure.
			spent = parent
			return err
		}

		user, err := a.users.GetByID(ctx, parent.UserID)
		if err != nil {
			return fmt.Errorf("get token owner: %w", err)
		}

		sess, err = a.issuePair(ctx, user, parent.Window(), &parent.ID)
		return err
	})
	if err == nil {
		a.metrics.Refreshes.WithLabelValues(metrics.ResultSuccess).Inc()
		return sess, nil
	}

	switch {
	case errors.Is(err, model.ErrTokenUsed):
		return model.Session{}, a.respondToReplay(ctx, spent)
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrTokenExpired), errors.Is(err, model.ErrTokenRevoked):
		a.metrics.Refreshes.WithLabelValues(metrics.ResultInvalid).Inc()
		// The reason stays in logs; the caller only learns the token is no
		// longer exchangeable.
		a.logger.Debug("refresh rejected", "reason", err.Error())
		return model.Session{}, model.ErrTokenInvalid
	case errors.Is(err, model.ErrSecretCollision):
		a.metrics.Refreshes.WithLabelValues(metrics.ResultError).Inc()
		return model.Session{}, err
	default:
		a.metrics.Refreshes.WithLabelValues(metrics.ResultError).Inc()
		return model.Session{}, a.storeFailure("refresh", err)
	}
}

// respondToReplay invalidates the whole session family of the token owner.
// Runs outside the rotation transaction: the revocation must persist even
// though the rotation was aborted.
func (a *Auth) respondToReplay(ctx context.Context, spent model.RefreshToken) error {
	revoked, err := a.tokens.RevokeAllForUser(ctx, spent.UserID)
	if err != nil {
		a.metrics.Refreshes.WithLabelValues(metrics.ResultError).Inc()
		return a.storeFailure("refresh: revoke family after replay", err)
	}

	a.metrics.Refreshes.WithLabelValues(metrics.ResultReplay).Inc()
	a.metrics.ReplaysDetected.Inc()
	a.metrics.TokensRevoked.Add(float64(revoked))
	a.logger.Warn("refresh token replay detected, session family revoked",
		"user_id", spent.UserID,
		"token_id", spent.ID,
		"revoked", revoked)

	return model.ErrTokenReplayDetected
}

// ChangePassword rotates the stored password and revokes every refresh token
// of the user in one atomic unit. Outstanding access tokens stay valid until
// their own expiry.
func (a *Auth) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if userID == uuid.Nil || currentPassword == "" || newPassword == "" {
		return model.ErrValidation
	}

	if err := a.verifier.VerifyPassword(ctx, userID, currentPassword); err != nil {
		switch {
		case errors.Is(err, model.ErrAccountLocked):
			a.metrics.PasswordChanges.WithLabelValues(metrics.ResultLocked).Inc()
			return model.ErrAccountLocked
		case errors.Is(err, model.ErrInvalidCredentials):
			a.metrics.PasswordChanges.WithLabelValues(metrics.ResultDenied).Inc()
			a.logger.Info("password change rejected: current password mismatch", "user_id", userID)
			return model.ErrInvalidCurrentPassword
		default:
			a.metrics.PasswordChanges.WithLabelValues(metrics.ResultError).Inc()
			return a.storeFailure("change password: verify current", err)
		}
	}

	var revoked int64
	err := a.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := a.verifier.SetPassword(ctx, userID, newPassword); err != nil {
			return err
		}
		var err error
		revoked, err = a.tokens.RevokeAllForUser(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, model.ErrWeakPassword) {
			a.metrics.PasswordChanges.WithLabelValues(metrics.ResultDenied).Inc()
			return model.ErrWeakPassword
		}
		a.metrics.PasswordChanges.WithLabelValues(metrics.ResultError).Inc()
		return a.storeFailure("change password", err)
	}

	a.metrics.PasswordChanges.WithLabelValues(metrics.ResultSuccess).Inc()
	a.metrics.TokensRevoked.Add(float64(revoked))
	a.logger.Info("password changed, sessions revoked", "user_id", userID, "revoked", revoked)

	return nil
}

// issuePair mints an access token and a refresh secret and persists the new
// refresh record with the given lifetime window.
func (a *Auth) issuePair(ctx context.Context, user model.User, window time.Duration, parentID *uuid.UUID) (model.Session, error) {
	access, expiresIn, err := a.issuer.IssueAccessToken(user.ID, user.PasswordEpoch)
	if err != nil {
		return model.Session{}, fmt.Errorf("issue access token: %w", err)
	}

	secret, err := a.issuer.IssueRefreshSecret()
	if err != nil {
		return model.Session{}, fmt.Errorf("issue refresh secret: %w", err)
	}

	now := time.Now()
	record := model.RefreshToken{
		ID:         model.NewTokenID(),
		UserID:     user.ID,
		SecretHash: token.HashSecret(secret),
		CreatedAt:  now,
		ExpiresAt:  now.Add(window),
		ParentID:   parentID,
	}

	if err := a.tokens.Insert(ctx, record); err != nil {
		if errors.Is(err, model.ErrSecretCollision) {
			// A collision of a fresh 256-bit secret cannot happen by chance.
			a.logger.Error("refresh secret collision, storage integrity suspect", "user_id", user.ID)
			return model.Session{}, err
		}
		return model.Session{}, a.storeFailure("persist refresh token", err)
	}

	return model.Session{
		AccessToken:        access,
		RefreshSecret:      secret,
		ExpiresIn:          expiresIn,
		MustChangePassword: user.MustChangePassword,
	}, nil
}

// storeFailure logs the underlying cause and maps it to the retryable
// ErrStoreUnavailable. Secrets never appear in the message chain.
func (a *Auth) storeFailure(op string, err error) error {
	a.logger.Error("storage operation failed", "op", op, "error", err.Error())
	return fmt.Errorf("%s: %w", op, model.ErrStoreUnavailable)
}
