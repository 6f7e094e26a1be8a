package model

import "errors"

// ErrNotFound is returned by stores when no row matches.
var ErrNotFound = errors.New("not found")

// Externally visible failure kinds. The calling API layer maps these to wire
// responses; everything not listed here is an internal error.
var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password
	// so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	// ErrTokenInvalid merges not-found, expired and revoked refresh tokens.
	// The distinction is kept in internal logs only.
	ErrTokenInvalid = errors.New("refresh token invalid")
	// ErrTokenReplayDetected signals reuse of an already-rotated refresh
	// token. All refresh tokens of the owner have been revoked; the caller
	// must re-authenticate, not retry.
	ErrTokenReplayDetected    = errors.New("refresh token replay detected")
	ErrInvalidCurrentPassword = errors.New("current password does not match")
	ErrWeakPassword           = errors.New("new password rejected by policy")
	// ErrStoreUnavailable marks transient storage failures. Safe to retry.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrValidation marks malformed input. Never retried automatically.
	ErrValidation = errors.New("invalid input")
)

// Store-level refresh-token states. These never escape the lifecycle service
// unmerged.
var (
	ErrTokenExpired = errors.New("refresh token expired")
	ErrTokenRevoked = errors.New("refresh token revoked")
	ErrTokenUsed    = errors.New("refresh token already consumed")
	// ErrSecretCollision means a freshly generated secret hash already exists
	// in the store. This should never happen and indicates either broken
	// entropy or storage corruption.
	ErrSecretCollision = errors.New("refresh secret collision")
)
