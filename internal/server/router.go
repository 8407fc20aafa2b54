// Package server assembles the HTTP router.
package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/localplate/waitlist/internal/config"
	"github.com/localplate/waitlist/internal/handlers"
	"github.com/localplate/waitlist/internal/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Counter     middleware.Counter
	Health      *handlers.HealthHandler
	Waitlist    *handlers.WaitlistHandler
	Referrals   *handlers.ReferralHandler
	SocialProof *handlers.SocialProofHandler
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// AllowedOrigins splits the comma separated CORS_ORIGIN value.
func AllowedOrigins(origin string) []string {
	var origins []string
	for _, o := range strings.Split(origin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rateLimiter := middleware.NewRateLimiter(d.Counter, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
	signupLimiter := middleware.NewSignupRateLimiter(d.Counter, cfg.RateLimit.SignupRequests, cfg.RateLimit.Window, logger)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Logger(logger))
	r.Use(func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, maxBodyBytes)
	})
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   AllowedOrigins(cfg.CORS.Origin),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", handlers.ReducedMotionHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", d.Health.Health)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter.Limit)
		r.Use(middleware.Session(cfg.Server.Env == "production", cfg.Waitlist.SessionTTL))

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Post("/landing", d.Waitlist.Landing)
			r.With(signupLimiter.Limit).Post("/waitlist", d.Waitlist.Join)
		})

		r.Get("/waitlist/status", d.Waitlist.Status)
		r.Get("/waitlist/stats", d.Waitlist.Stats)
		r.Get("/waitlist/success", d.Waitlist.Success)

		r.Get("/referrals/{code}", d.Referrals.Stats)
		r.Get("/referrals/{code}/live", d.Referrals.Live)

		r.Get("/social-proof/stream", d.SocialProof.Stream)
	})

	return r
}
