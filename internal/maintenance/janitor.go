// Package maintenance removes long-dead refresh tokens from storage so the
// table does not grow without bound. Rows are kept for a retention period
// past expiry to preserve the audit trail of replay incidents.
package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/feedline/auth-server/internal/logger"
	"github.com/feedline/auth-server/internal/metrics"
)

// Config bounds a janitor run.
type Config struct {
	Interval  time.Duration
	Retention time.Duration
	BatchSize int
}

// Janitor deletes expired refresh-token rows in batches on a timer.
type Janitor struct {
	db      *sql.DB
	config  Config
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewJanitor(db *sql.DB, config Config, m *metrics.Metrics, logger *logger.Logger) *Janitor {
	// A non-positive batch size would keep Sweep looping on empty deletes.
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	return &Janitor{db: db, config: config, metrics: m, logger: logger}
}

// Run sweeps on every tick until ctx is cancelled. Blocks; call from its own
// goroutine.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := j.Sweep(ctx)
			if err != nil {
				j.logger.Error("janitor sweep failed", "error", err.Error())
				continue
			}
			if deleted > 0 {
				j.logger.Info("janitor sweep completed", "deleted", deleted)
			}
		}
	}
}

// Sweep deletes rows whose expiry fell out of the retention window, batch by
// batch until a short batch signals the backlog is drained.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-j.config.Retention)

	var total int64
	for {
		res, err := j.db.ExecContext(ctx,
			`DELETE FROM refresh_tokens
			 WHERE id IN (
			   SELECT id FROM refresh_tokens WHERE expires_at < $1 LIMIT $2
			 )`,
			cutoff, j.config.BatchSize)
		if err != nil {
			return total, fmt.Errorf("failed to delete expired tokens: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to read affected rows: %w", err)
		}

		total += n
		j.metrics.TokensDeleted.Add(float64(n))

		if n < int64(j.config.BatchSize) {
			return total, nil
		}
	}
}
