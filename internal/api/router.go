package api

import (
	"net/http"
	"time"

	"algoarena/internal/api/handler"
	"algoarena/internal/api/middleware"
	"algoarena/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	// RequestTimeout must exceed the judge's maximum poll wait.
	RequestTimeout time.Duration
	MetricsEnabled bool
}

func NewRouter(submissionService handler.SubmissionService, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}

	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(api chi.Router) {
		api.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
		// Verifies "Authorization: Bearer T" and puts the token in context.
		api.Use(jwtauth.Verifier(security.TokenAuth))

		submissionHandler := handler.NewSubmissionHandler(submissionService)
		api.Route("/submission", submissionHandler.RegisterRoutes)
	})

	return r
}
