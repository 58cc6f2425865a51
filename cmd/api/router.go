package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/FACorreiaa/diviflow/internal/domain/auth"
	"github.com/FACorreiaa/diviflow/pkg/ratelimit"
)

func newRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	limiter := ratelimit.New(
		float64(deps.Config.Server.RateLimitPerSecond),
		deps.Config.Server.RateLimitBurst,
	)
	r.Use(limiter.Middleware)

	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{deps.Config.Server.BaseURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","service":"diviflow-api"}`))
	})

	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(protected chi.Router) {
		protected.Use(auth.RequireAuth(deps.TokenManager))
		deps.DividendHandler.Routes(protected)
	})

	return r
}
