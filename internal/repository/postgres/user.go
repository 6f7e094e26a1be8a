package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/feedline/auth-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, email, password_hash, password_epoch, failed_attempts, locked_until, must_change_password, created_at, updated_at`

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := r.db.db(ctx).QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.PasswordEpoch, &user.FailedAttempts,
		&user.LockedUntil, &user.MustChangePassword, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := r.db.db(ctx).QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.PasswordEpoch, &user.FailedAttempts,
		&user.LockedUntil, &user.MustChangePassword, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, email, password_hash, password_epoch, must_change_password, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, now(), now())
			  RETURNING ` + userColumns

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.PasswordEpoch == 0 {
		user.PasswordEpoch = 1
	}

	var savedUser model.User
	err := r.db.db(ctx).QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.PasswordEpoch, user.MustChangePassword,
	).Scan(
		&savedUser.ID, &savedUser.Email, &savedUser.PasswordHash, &savedUser.PasswordEpoch,
		&savedUser.FailedAttempts, &savedUser.LockedUntil, &savedUser.MustChangePassword,
		&savedUser.CreatedAt, &savedUser.UpdatedAt,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return savedUser, nil
}

func (r *UserRepository) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `
        UPDATE users
        SET password_hash = $2,
            password_epoch = password_epoch + 1,
            must_change_password = FALSE,
            failed_attempts = 0,
            locked_until = NULL,
            updated_at = now()
        WHERE id = $1
    `
	tag, err := r.db.db(ctx).Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// RecordFailure increments the failure counter in a single statement so
// concurrent failed attempts cannot lose updates. Crossing the threshold
// opens the lockout window and resets the counter.
func (r *UserRepository) RecordFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockedUntil time.Time) (bool, error) {
	const query = `
        UPDATE users
        SET failed_attempts = CASE WHEN failed_attempts + 1 >= $2 THEN 0 ELSE failed_attempts + 1 END,
            locked_until = CASE WHEN failed_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
            updated_at = now()
        WHERE id = $1
        RETURNING locked_until IS NOT NULL AND locked_until > now()
    `
	var locked bool
	err := r.db.db(ctx).QueryRow(ctx, query, id, maxAttempts, lockedUntil).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, model.ErrNotFound
		}
		return false, fmt.Errorf("failed to record auth failure: %w", err)
	}
	return locked, nil
}

func (r *UserRepository) ResetFailures(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE users SET failed_attempts = 0, updated_at = now()
        WHERE id = $1 AND failed_attempts > 0
    `
	if _, err := r.db.db(ctx).Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to reset auth failures: %w", err)
	}
	return nil
}
