package sessionauth

import (
	"log/slog"
	"time"

	"github.com/MrEthical07/sessionauth/account"
	"github.com/MrEthical07/sessionauth/internal/rate"
	"github.com/MrEthical07/sessionauth/jwt"
	"github.com/MrEthical07/sessionauth/password"
	"github.com/MrEthical07/sessionauth/session"
)

// Engine ties the token codec, the session and account stores and the
// password hasher together. Build one with New().WithDB(db).Build().
//
// An Engine holds no mutable state of its own besides metrics counters and
// is safe for concurrent use.
type Engine struct {
	config    Config
	codec     *jwt.Codec
	sessions  *session.Store
	accounts  *account.Store
	hasher    *password.Hasher
	limiter   *rate.Limiter
	metrics   *Metrics
	logger    *slog.Logger
	dummyHash string
}

// Close releases nothing today; the database and Redis handles belong to
// the caller. It exists so callers can defer it unconditionally.
func (e *Engine) Close() {}

// SessionTTL reports the sliding session lifetime.
func (e *Engine) SessionTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.Session.TTL
}

// Logger returns the logger the engine writes to.
func (e *Engine) Logger() *slog.Logger {
	if e == nil || e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.codec != nil && e.sessions != nil
}
