package sessionauth

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MrEthical07/sessionauth/account"
)

// ErrAccountInvalid is returned by CreateAccount for input that Login would
// never accept.
var ErrAccountInvalid = errors.New("invalid account")

// CreateAccountRequest describes a new account. Password is plaintext and is
// hashed before it is stored.
type CreateAccountRequest struct {
	Username          string
	Password          string
	Name              string
	PreferredLanguage account.Language
}

// CreateAccount hashes req.Password with the current parameters and inserts
// the account.
func (e *Engine) CreateAccount(ctx context.Context, req CreateAccountRequest) (*account.Account, error) {
	if e == nil || e.accounts == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	if !e.validCredentialShape(req.Username, req.Password) {
		return nil, ErrAccountInvalid
	}
	if !utf8.ValidString(req.Name) {
		return nil, ErrAccountInvalid
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	acc := &account.Account{
		Username:          req.Username,
		PasswordHash:      hash,
		Name:              req.Name,
		PreferredLanguage: account.ParseLanguage(string(req.PreferredLanguage)),
	}
	if err := e.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}

	e.logger.Info("account created",
		slog.String("account_id", acc.ID.String()),
		slog.String("username", acc.Username),
	)
	return acc, nil
}

// Account returns the account an authorized identity belongs to. An account
// deleted under a live session reads as Unauthorized.
func (e *Engine) Account(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if e == nil || e.accounts == nil {
		return nil, ErrEngineNotReady
	}

	acc, err := e.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, DBError(err.Error())
	}
	return acc, nil
}
