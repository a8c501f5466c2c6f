package sessionauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/sessionauth/session"
)

// Authorize resolves a bearer token to a live, renewed session.
//
// The returned error is always an *APIError: Unauthorized for anything
// wrong with the token or a missing session, Expired once expires_at has
// been reached, DBConnectionError when the lookup cannot reach the store.
// A renewal that updates no row fails closed as Unauthorized.
func (e *Engine) Authorize(ctx context.Context, token string) (*Identity, error) {
	if !e.ready() {
		return nil, ErrUnexpected
	}

	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthorizeLatency, time.Since(start))
		}()
	}

	sessionID, err := e.codec.Decode(token)
	if err != nil {
		e.logger.Debug("token rejected", slog.String("reason", err.Error()))
		e.metricInc(MetricAuthorizeUnauthorized)
		return nil, ErrUnauthorized
	}

	if e.config.Session.InlineCleanup {
		e.sweepInline(ctx)
	}

	sess, err := e.sessions.Fetch(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			e.logger.Debug("session not found", slog.String("session_id", sessionID.String()))
			e.metricInc(MetricAuthorizeUnauthorized)
			return nil, ErrUnauthorized
		}
		e.logger.Warn("session lookup failed", slog.String("error", err.Error()))
		e.metricInc(MetricAuthorizeDBError)
		return nil, ErrDBConnection
	}

	now := e.sessions.Now()
	if !sess.ExpiresAt.After(now) {
		e.logger.Info("session expired",
			slog.String("session_id", sess.ID.String()),
			slog.String("account_id", sess.AccountID.String()),
			slog.Time("expires_at", sess.ExpiresAt),
		)
		e.metricInc(MetricAuthorizeExpired)
		return nil, ErrExpired
	}

	expiresAt, err := e.sessions.Renew(ctx, sess.ID)
	if err != nil {
		e.logger.Debug("session renewal failed",
			slog.String("session_id", sess.ID.String()),
			slog.String("error", err.Error()),
		)
		e.metricInc(MetricAuthorizeUnauthorized)
		return nil, ErrUnauthorized
	}

	e.metricInc(MetricSessionRenewed)
	e.metricInc(MetricAuthorizeSuccess)

	return &Identity{
		AccountID: sess.AccountID,
		SessionID: sess.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
