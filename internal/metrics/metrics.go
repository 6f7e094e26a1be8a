// Package metrics exposes prometheus counters for authentication and token
// lifecycle events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	ResultSuccess = "success"
	ResultDenied  = "denied"
	ResultLocked  = "locked"
	ResultInvalid = "invalid"
	ResultReplay  = "replay"
	ResultError   = "error"
)

// Metrics holds the counters of the token lifecycle service and the
// maintenance janitor.
type Metrics struct {
	Logins          *prometheus.CounterVec
	Refreshes       *prometheus.CounterVec
	PasswordChanges *prometheus.CounterVec
	ReplaysDetected prometheus.Counter
	TokensRevoked   prometheus.Counter
	TokensDeleted   prometheus.Counter
}

// New registers all counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "refreshes_total",
			Help:      "Refresh-token rotations by result.",
		}, []string{"result"}),
		PasswordChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "password_changes_total",
			Help:      "Password changes by result.",
		}, []string{"result"}),
		ReplaysDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "token_replays_detected_total",
			Help:      "Reuses of already-consumed refresh tokens.",
		}),
		TokensRevoked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "tokens_revoked_total",
			Help:      "Refresh tokens revoked by replay response or password change.",
		}),
		TokensDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "tokens_deleted_total",
			Help:      "Expired refresh-token records garbage-collected.",
		}),
	}
}
