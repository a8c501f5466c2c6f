package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/sessionauth"
)

// Authorizer turns a bearer token into a verified identity. The error it
// returns is written to the client as is.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*sessionauth.Identity, error)
}

type options struct {
	bypassPrefix string
	logger       *slog.Logger
}

// Option configures Guard.
type Option func(*options)

// WithBypassPrefix sets the prefix of the last path segment that skips
// authorization. The default is "login". An empty prefix disables the
// bypass.
func WithBypassPrefix(prefix string) Option {
	return func(o *options) {
		o.bypassPrefix = prefix
	}
}

// WithLogger sets where rejections are logged. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Guard returns middleware that only lets requests with a live session
// through. Requests whose last path segment starts with the bypass prefix
// pass untouched.
func Guard(a Authorizer, opts ...Option) func(http.Handler) http.Handler {
	o := options{
		bypassPrefix: "login",
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if o.bypass(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if a == nil {
				o.reject(w, r, sessionauth.ErrUnauthorized, "no authorizer", false)
				return
			}

			values := r.Header.Values("Authorization")
			if len(values) == 0 {
				o.reject(w, r, sessionauth.ErrUnauthorized, "missing header", false)
				return
			}
			header := values[0]
			if header == "" || !utf8.ValidString(header) {
				o.reject(w, r, sessionauth.ErrUnauthorized, "unreadable header", true)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				o.reject(w, r, sessionauth.ErrUnauthorized, "not a bearer token", true)
				return
			}

			id, err := a.Authorize(r.Context(), token)
			if err != nil {
				o.reject(w, r, err, "session rejected", true)
				return
			}

			next.ServeHTTP(w, r.WithContext(sessionauth.WithIdentity(r.Context(), id)))
		})
	}
}

func (o *options) bypass(path string) bool {
	if o.bypassPrefix == "" {
		return false
	}
	last := path[strings.LastIndex(path, "/")+1:]
	return strings.HasPrefix(last, o.bypassPrefix)
}

func (o *options) reject(w http.ResponseWriter, r *http.Request, err error, reason string, headerPresent bool) {
	o.logger.Debug("request rejected",
		slog.String("reason", reason),
		slog.String("error", err.Error()),
		slog.Bool("header_present", headerPresent),
		slog.String("client_addr", r.RemoteAddr),
		slog.String("path", r.URL.Path),
	)
	sessionauth.WriteError(w, err)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
