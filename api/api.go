// Package api exposes the liveness heartbeat surface over HTTP: challenge
// issuance and check-in verification against the vault's registered check-in
// key. The server never sees passphrases or vault keys.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/heirloom-app/heirloom/storage"
)

//go:embed openapi.yaml
var openapiSpec []byte

// API holds the dependencies needed by the REST handlers.
type API struct {
	repo       storage.Repository
	challenges *challengeStore
	logger     *slog.Logger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger. If not set, a default JSON logger
// writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// New creates a new API instance.
func New(repo storage.Repository, opts ...Option) *API {
	a := &API{
		repo:       repo,
		challenges: newChallengeStore(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(SecurityHeaders)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Post("/heartbeat/challenge", a.handleIssueChallenge)
	r.Post("/heartbeat", a.handleCheckin)
	r.Get("/liveness", a.handleLivenessStatus)

	return r
}
