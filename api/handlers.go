package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"

	"github.com/MrEthical07/sessionauth"
)

const maxBodySize = 4 << 10

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is the data of GET /api/get_user.
type User struct {
	Name              string `json:"name"`
	PreferredLanguage string `json:"preferred_language"`
}

var errInvalidBody = sessionauth.UnexpectedError("invalid request body")

// Login accepts JSON or form-encoded credentials and answers with a fresh
// token.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(w, r)
	if err != nil {
		a.logger.Debug("login body rejected", slog.String("error", err.Error()))
		sessionauth.WriteError(w, errInvalidBody)
		return
	}

	id, err := a.engine.Login(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		sessionauth.WriteError(w, err)
		return
	}

	sessionauth.WriteResponse(w, sessionauth.Success[any](id, nil))
}

// GetUser returns the name and language of the authorized account.
func (a *API) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionauth.IdentityFromContext(r.Context())
	if !ok {
		sessionauth.WriteError(w, sessionauth.ErrUnauthorized)
		return
	}

	acc, err := a.engine.Account(r.Context(), id.AccountID)
	if err != nil {
		a.logger.Warn("account lookup failed",
			slog.String("account_id", id.AccountID.String()),
			slog.String("error", err.Error()),
		)
		sessionauth.WriteError(w, err)
		return
	}

	sessionauth.WriteResponse(w, sessionauth.Success(id, User{
		Name:              acc.Name,
		PreferredLanguage: string(acc.PreferredLanguage),
	}))
}

// Logout deletes the caller's session. The envelope carries no token.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionauth.IdentityFromContext(r.Context())
	if !ok {
		sessionauth.WriteError(w, sessionauth.ErrUnauthorized)
		return
	}

	if err := a.engine.Logout(r.Context(), id); err != nil {
		sessionauth.WriteError(w, err)
		return
	}

	sessionauth.WriteResponse(w, sessionauth.Success[any](nil, nil))
}

func decodeLogin(w http.ResponseWriter, r *http.Request) (LoginRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req LoginRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		return req, nil
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return req, errors.New("trailing data after JSON body")
	}
	return req, nil
}

// clientIP strips the port chi's RealIP leaves on RemoteAddr when no proxy
// header was present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
