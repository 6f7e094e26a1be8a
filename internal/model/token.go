package model

import "github.com/google/uuid"

// TokenIssuer mints access tokens and refresh secrets.
type TokenIssuer interface {
	// IssueAccessToken produces a signed short-lived access token embedding
	// the user id and password epoch, plus its lifetime in seconds.
	IssueAccessToken(userID uuid.UUID, passwordEpoch int) (token string, expiresIn int64, err error)
	// ParseAccessToken validates a token and extracts the embedded claims.
	ParseAccessToken(token string) (userID uuid.UUID, passwordEpoch int, err error)
	// IssueRefreshSecret returns a fresh cryptographically random secret.
	IssueRefreshSecret() (string, error)
}
