package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/feedline/auth-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

// pgUniqueViolation is PostgreSQL error code 23505.
const pgUniqueViolation = "23505"

type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Insert(ctx context.Context, token model.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (
            id, user_id, secret_hash, created_at, expires_at, used, revoked_at, parent_id, updated_at
        ) VALUES ($1, $2, $3, $4, $5, FALSE, NULL, $6, now())
    `

	if token.ID == uuid.Nil {
		token.ID = model.NewTokenID()
	}

	_, err := r.db.db(ctx).Exec(ctx, query,
		token.ID, token.UserID, token.SecretHash, token.CreatedAt, token.ExpiresAt, token.ParentID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return model.ErrSecretCollision
		}
		return fmt.Errorf("failed to insert refresh token: %w", err)
	}
	return nil
}

// TryConsume is the single mutation path for token rotation. The conditional
// UPDATE transitions exactly one Active record to Consumed; concurrent calls
// with the same hash race on the `used = FALSE` predicate and at most one can
// win. On a miss a separate read classifies the failure without mutating
// anything. The classification uses the database clock so that expiry
// decisions are consistent with the UPDATE predicate.
func (r *RefreshTokenRepository) TryConsume(ctx context.Context, secretHash []byte) (model.RefreshToken, error) {
	const consume = `
        UPDATE refresh_tokens
        SET used = TRUE, updated_at = now()
        WHERE secret_hash = $1 AND used = FALSE AND revoked_at IS NULL AND expires_at > now()
        RETURNING id, user_id, secret_hash, created_at, expires_at, revoked_at, parent_id, updated_at
    `

	var rt model.RefreshToken
	err := r.db.db(ctx).QueryRow(ctx, consume, secretHash).Scan(
		&rt.ID, &rt.UserID, &rt.SecretHash, &rt.CreatedAt, &rt.ExpiresAt,
		&rt.RevokedAt, &rt.ParentID, &rt.UpdatedAt,
	)
	if err == nil {
		// The returned state is pre-transition: the row is Consumed now, but
		// the caller sees the record it just spent.
		rt.Used = false
		return rt, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.RefreshToken{}, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	return r.classify(ctx, secretHash)
}

func (r *RefreshTokenRepository) classify(ctx context.Context, secretHash []byte) (model.RefreshToken, error) {
	const query = `
        SELECT id, user_id, secret_hash, created_at, expires_at, used, revoked_at, parent_id, updated_at,
               expires_at <= now() AS expired
        FROM refresh_tokens WHERE secret_hash = $1
    `

	var rt model.RefreshToken
	var expired bool
	err := r.db.db(ctx).QueryRow(ctx, query, secretHash).Scan(
		&rt.ID, &rt.UserID, &rt.SecretHash, &rt.CreatedAt, &rt.ExpiresAt,
		&rt.Used, &rt.RevokedAt, &rt.ParentID, &rt.UpdatedAt, &expired,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to classify refresh token: %w", err)
	}

	// Consumed wins over Revoked: presenting a used token is replay evidence
	// even after the family was mass-revoked.
	switch {
	case rt.Used:
		return rt, model.ErrTokenUsed
	case rt.RevokedAt != nil:
		return rt, model.ErrTokenRevoked
	case expired:
		return model.RefreshToken{}, model.ErrTokenExpired
	default:
		// The record turned Active between the UPDATE and this read, which no
		// transition allows. Report it as missing rather than guessing.
		return model.RefreshToken{}, model.ErrNotFound
	}
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `
        UPDATE refresh_tokens SET revoked_at = now(), updated_at = now()
        WHERE user_id = $1 AND revoked_at IS NULL
    `
	tag, err := r.db.db(ctx).Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens by user: %w", err)
	}
	return tag.RowsAffected(), nil
}
