package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-weather-auth/internal/config"
	"github.com/go-weather-auth/internal/metrics"
	"github.com/go-weather-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-weather-auth/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(deps.Account)
	pwH := handler.NewPasswordRecoveryHandler(deps.Account)
	emailH := handler.NewEmailConfirmHandler(deps.Account, cfg.FrontendLink)
	weatherH := handler.NewWeatherHandler(deps.Weather)

	r.Get("/health-check/{action}", healthH.Ping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Every /api request passes the gate; the account entry points are on its allow-list.
		r.Use(appmiddleware.Gate(deps.Tokens, appmiddleware.GateOptions{Strict: cfg.StrictPublicRoutes}))

		r.Post("/register", userH.Register)
		r.Post("/login", userH.Login)
		r.Get("/verify-email", emailH.Verify)
		r.Post("/forgot-password", pwH.Forgot)
		r.Post("/reset-password", pwH.Reset)

		r.Get("/users/{id}", userH.Get)
		r.Get("/weather", weatherH.Get)
	})

	return r
}
