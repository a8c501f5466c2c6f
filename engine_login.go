package sessionauth

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/MrEthical07/sessionauth/account"
	"github.com/MrEthical07/sessionauth/internal/rate"
)

// Login checks username and password and opens a new session. clientIP
// feeds the per-IP throttle and may be empty.
//
// Every credential problem, including throttling, is reported as
// InvalidCredentials so callers cannot tell an unknown user from a wrong
// password or a locked one.
func (e *Engine) Login(ctx context.Context, username, password, clientIP string) (*Identity, error) {
	if !e.ready() || e.accounts == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}

	if !e.validCredentialShape(username, password) {
		e.logger.Warn("login rejected: credential length out of range")
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	if e.limiter != nil {
		if err := e.limiter.CheckLogin(ctx, username, clientIP); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.logger.Warn("login throttled", slog.String("username", username))
				e.metricInc(MetricLoginRateLimited)
			} else {
				e.logger.Warn("login limiter unavailable", slog.String("error", err.Error()))
				e.metricInc(MetricLoginFailure)
			}
			return nil, ErrInvalidCredentials
		}
	}

	acc, err := e.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			// Same work as a real mismatch.
			_, _ = e.hasher.Verify(password, e.dummyHash)
			e.loginFailed(ctx, username, clientIP)
			return nil, ErrInvalidCredentials
		}
		e.logger.Warn("account lookup failed", slog.String("error", err.Error()))
		return nil, ErrDBConnection
	}

	ok, err := e.hasher.Verify(password, acc.PasswordHash)
	if err != nil {
		e.logger.Warn("password verification failed",
			slog.String("account_id", acc.ID.String()),
			slog.String("error", err.Error()),
		)
		ok = false
	}
	if !ok {
		e.loginFailed(ctx, username, clientIP)
		return nil, ErrInvalidCredentials
	}

	sess, err := e.sessions.Create(ctx, acc.ID)
	if err != nil {
		return nil, DBError("Error inserting session: " + err.Error())
	}
	e.metricInc(MetricSessionCreated)
	e.logger.Info("session created",
		slog.String("session_id", sess.ID.String()),
		slog.String("account_id", acc.ID.String()),
	)

	token, err := e.codec.Encode(sess.ID)
	if err != nil {
		return nil, UnexpectedError(err.Error())
	}

	if e.limiter != nil {
		if err := e.limiter.Reset(ctx, username); err != nil {
			e.logger.Warn("login limiter reset failed", slog.String("error", err.Error()))
		}
	}

	if e.config.Password.UpgradeOnLogin {
		e.upgradeHash(ctx, acc, password)
	}

	e.metricInc(MetricLoginSuccess)
	e.logger.Info("logged in", slog.String("username", username))

	return &Identity{
		AccountID: acc.ID,
		SessionID: sess.ID,
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// Logout revokes the session behind id. Revoking an already missing
// session succeeds.
func (e *Engine) Logout(ctx context.Context, id *Identity) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if id == nil {
		return ErrUnauthorized
	}

	if err := e.sessions.Delete(ctx, id.SessionID); err != nil {
		return DBError(err.Error())
	}

	e.metricInc(MetricSessionRevoked)
	e.logger.Info("session revoked",
		slog.String("session_id", id.SessionID.String()),
		slog.String("account_id", id.AccountID.String()),
	)
	return nil
}

func (e *Engine) validCredentialShape(username, password string) bool {
	if username == "" || password == "" {
		return false
	}
	if !utf8.ValidString(username) || !utf8.ValidString(password) {
		return false
	}
	return utf8.RuneCountInString(username) <= e.config.Login.UsernameMaxLength &&
		utf8.RuneCountInString(password) <= e.config.Login.PasswordMaxLength
}

func (e *Engine) loginFailed(ctx context.Context, username, clientIP string) {
	e.metricInc(MetricLoginFailure)
	e.logger.Debug("login failed", slog.String("username", username))

	if e.limiter == nil {
		return
	}
	if err := e.limiter.RecordFailure(ctx, username, clientIP); err != nil {
		e.logger.Warn("login limiter record failed", slog.String("error", err.Error()))
	}
}

// upgradeHash rewrites bcrypt or under-parameterised argon2id hashes with
// the current parameters. Failures leave the old hash in place.
func (e *Engine) upgradeHash(ctx context.Context, acc *account.Account, password string) {
	needs, err := e.hasher.NeedsUpgrade(acc.PasswordHash)
	if err != nil || !needs {
		return
	}

	hash, err := e.hasher.Hash(password)
	if err != nil {
		e.logger.Warn("password rehash failed", slog.String("error", err.Error()))
		return
	}
	if err := e.accounts.UpdatePasswordHash(ctx, acc.ID, hash); err != nil {
		e.logger.Warn("password hash upgrade failed",
			slog.String("account_id", acc.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
