package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/feedline/auth-server/internal/model"
)

// Claims represents access-token JWT claims with the user id and the password
// epoch current at issue time.
type Claims struct {
	jwt.RegisteredClaims
	UserID        uuid.UUID `json:"user_id"`
	PasswordEpoch int       `json:"pwd_epoch"`
	TokenType     string    `json:"typ"`
}

// Issuer mints HMAC-signed access tokens and random refresh secrets. The
// signing secret and token lifetime are fixed at construction.
type Issuer struct {
	secret    []byte
	accessTTL time.Duration
}

// NewIssuer creates an Issuer with the provided signing secret and
// access-token lifetime.
func NewIssuer(secret string, accessTTL time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), accessTTL: accessTTL}
}

var _ model.TokenIssuer = (*Issuer)(nil)

const (
	typeAccess = "access"

	// refreshSecretBytes gives 256 bits of entropy per refresh secret.
	refreshSecretBytes = 32
)

// IssueAccessToken creates a short-lived signed access token for the user.
func (i *Issuer) IssueAccessToken(userID uuid.UUID, passwordEpoch int) (string, int64, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
		UserID:        userID,
		PasswordEpoch: passwordEpoch,
		TokenType:     typeAccess,
	})

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, int64(i.accessTTL.Seconds()), nil
}

// ParseAccessToken validates a token and extracts the user id and password
// epoch it was issued with.
func (i *Issuer) ParseAccessToken(tokenString string) (uuid.UUID, int, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, 0, fmt.Errorf("access token is invalid")
	}
	if claims.TokenType != typeAccess {
		return uuid.Nil, 0, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}
	return claims.UserID, claims.PasswordEpoch, nil
}

// IssueRefreshSecret returns a fresh random secret suitable for use as a
// refresh token. Collisions are negligible by construction; the store's
// unique constraint on the hash is a backstop, not the source of uniqueness.
func (i *Issuer) IssueRefreshSecret() (string, error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashSecret returns the sha256 digest of a refresh secret. Only this digest
// is ever stored or looked up.
func HashSecret(secret string) []byte {
	h := sha256.Sum256([]byte(secret))
	return h[:]
}
