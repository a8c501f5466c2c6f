// Package reaper periodically deletes sessions that have been dead for a
// while. It is the backstop for the inline cleanup done during
// authorization.
package reaper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/thejerf/abtime"
)

const (
	// TickerID identifies the sweep ticker on an abtime.ManualTime.
	TickerID = iota
)

// Sweeper deletes sessions whose expiry lies before cutoff.
// *sessionauth.Engine and *session.Store both satisfy it.
type Sweeper interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config controls the sweep schedule.
type Config struct {
	// TTL is the session lifetime the cutoff is measured in.
	TTL time.Duration
	// Interval between sweeps. Defaults to TTL.
	Interval time.Duration
	// CutoffMultiplier deletes rows with expires_at < now - CutoffMultiplier*TTL.
	// Defaults to 2.
	CutoffMultiplier int
}

// Reaper runs sweeps on a ticker.
type Reaper struct {
	abtime.AbstractTime

	sweeper Sweeper
	config  Config
	logger  *slog.Logger

	// sync is received from between ticks; tests use it to wait for the
	// loop.
	sync chan struct{}
}

type Option func(*Reaper)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reaper) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces the real clock driving the ticker and the cutoff.
func WithClock(clock abtime.AbstractTime) Option {
	return func(r *Reaper) {
		if clock != nil {
			r.AbstractTime = clock
		}
	}
}

// New validates cfg and returns a Reaper.
func New(s Sweeper, cfg Config, opts ...Option) (*Reaper, error) {
	if s == nil {
		return nil, errors.New("reaper: sweeper required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("reaper: TTL must be > 0")
	}
	if cfg.Interval < 0 {
		return nil, errors.New("reaper: Interval must be >= 0")
	}
	if cfg.CutoffMultiplier < 0 {
		return nil, errors.New("reaper: CutoffMultiplier must be >= 0")
	}
	if cfg.Interval == 0 {
		cfg.Interval = cfg.TTL
	}
	if cfg.CutoffMultiplier == 0 {
		cfg.CutoffMultiplier = 2
	}

	r := &Reaper{
		AbstractTime: abtime.NewRealTime(),
		sweeper:      s,
		config:       cfg,
		logger:       slog.Default(),
		sync:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Cutoff is the instant before which sessions are deleted right now.
func (r *Reaper) Cutoff() time.Time {
	return r.Now().Add(-time.Duration(r.config.CutoffMultiplier) * r.config.TTL)
}

// Interval reports the time between sweeps.
func (r *Reaper) Interval() time.Duration {
	return r.config.Interval
}

// RunOnce performs one sweep and returns the number of deleted sessions.
func (r *Reaper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := r.Cutoff()
	n, err := r.sweeper.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	r.logger.Debug("session sweep finished",
		slog.Int64("deleted", n),
		slog.Time("cutoff", cutoff),
	)
	return n, nil
}

// Run sweeps every Interval until ctx is done. The first sweep happens one
// interval after start. A failed sweep is logged and the next tick tries
// again.
func (r *Reaper) Run(ctx context.Context) {
	ticker := r.NewTicker(r.config.Interval, TickerID)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.sync:
		case <-ticker.Channel():
			if _, err := r.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Warn("session sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
