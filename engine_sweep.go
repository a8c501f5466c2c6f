package sessionauth

import (
	"context"
	"log/slog"
	"time"
)

type sweepSource struct {
	name    string
	swept   MetricID
	failure MetricID
}

var (
	inlineSweep = sweepSource{name: "inline", swept: MetricSweptInline, failure: MetricCleanupFailure}
	reaperSweep = sweepSource{name: "reaper", swept: MetricSweptReaper, failure: MetricReaperFailure}
)

// DeleteExpired removes every session whose expiry is before cutoff and
// reports how many rows went. The reaper drives it.
func (e *Engine) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return e.deleteExpired(ctx, cutoff, reaperSweep)
}

func (e *Engine) deleteExpired(ctx context.Context, cutoff time.Time, src sweepSource) (int64, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}

	n, err := e.sessions.DeleteExpired(ctx, cutoff)
	if err != nil {
		e.metricInc(src.failure)
		return 0, err
	}
	if n > 0 {
		e.metrics.Add(src.swept, uint64(n))
		e.logger.Info("expired sessions deleted",
			slog.String("source", src.name),
			slog.Int64("count", n),
			slog.Time("cutoff", cutoff),
		)
	}
	return n, nil
}

// sweepInline clears sessions dead for longer than the inline window. It
// never fails the caller.
func (e *Engine) sweepInline(ctx context.Context) {
	mult := time.Duration(e.config.Session.InlineCleanupMultiplier)
	cutoff := e.sessions.Now().Add(-mult * e.config.Session.TTL)

	if _, err := e.deleteExpired(ctx, cutoff, inlineSweep); err != nil {
		e.logger.Warn("inline session cleanup failed", slog.String("error", err.Error()))
	}
}
