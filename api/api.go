// Package api serves the login, user and logout endpoints over HTTP.
//
// Every endpoint under /api answers with the sessionauth envelope and
// status 200, including rejections. /metrics and /health sit outside the
// envelope contract.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/account"
	"github.com/MrEthical07/sessionauth/metrics/export/prometheus"
	"github.com/MrEthical07/sessionauth/middleware"
)

// Engine is the part of *sessionauth.Engine the handlers need.
type Engine interface {
	middleware.Authorizer
	Login(ctx context.Context, username, password, clientIP string) (*sessionauth.Identity, error)
	Logout(ctx context.Context, id *sessionauth.Identity) error
	Account(ctx context.Context, id uuid.UUID) (*account.Account, error)
	MetricsSnapshot() sessionauth.MetricsSnapshot
}

// API holds the dependencies needed by the handlers.
type API struct {
	engine  Engine
	metrics *prometheus.PrometheusExporter
	logger  *slog.Logger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the logger for request rejections and handler failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func New(engine Engine, opts ...Option) *API {
	a := &API{
		engine:  engine,
		metrics: prometheus.NewPrometheusExporterFromSource(engine),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// recoverer turns a handler panic into an UnexpectedError envelope so
// clients never see a bare 500.
func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			a.logger.Error("handler panic",
				slog.Any("panic", rec),
				slog.String("path", r.URL.Path),
				slog.String("request_id", chimw.GetReqID(r.Context())),
			)
			sessionauth.WriteError(w, sessionauth.UnexpectedError("internal error"))
		}()
		next.ServeHTTP(w, r)
	})
}

// Router returns a chi.Router with all routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(a.recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Guard(a.engine, middleware.WithLogger(a.logger)))

		r.Post("/login", a.Login)
		r.Get("/get_user", a.GetUser)
		r.Post("/get_user", a.GetUser)
		r.Post("/logout", a.Logout)
	})

	return r
}
