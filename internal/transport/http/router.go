package http

import (
	"net/http"

	"github.com/expertguide/expertguide-api/internal/application/auth"
	"github.com/expertguide/expertguide-api/internal/application/twofactor"
	"github.com/expertguide/expertguide-api/internal/config"
	"github.com/expertguide/expertguide-api/internal/domain"
	"github.com/expertguide/expertguide-api/internal/transport/http/handler"
	appmiddleware "github.com/expertguide/expertguide-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	challengeSvc := twofactor.NewService(deps.AttemptStore, deps.Audit, cfg.TwoFactor)
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:   deps.UserRepo,
		RoleRepo:   deps.RoleRepo,
		Challenges: challengeSvc,
		Mailer:     deps.Mailer,
		SMSSender:  deps.SMSSender,
		Tokens:     deps.Tokens,
		BcryptCost: cfg.BcryptCost,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, challengeSvc, cfg)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.With(sensitiveRL.Limit).Post("/login", authH.Login)
			r.With(sensitiveRL.Limit).Post("/verify-2fa", authH.Verify2FA)
			r.With(sensitiveRL.Limit).Post("/register", authH.Register)
			r.Post("/refresh", authH.Refresh)
			r.Post("/logout", authH.Logout)
			r.Get("/me", authH.Me)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.Auth(deps.Tokens))
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/2fa/reset/{id}", authH.ResetChallenge)
			})
		})
	})

	return r
}
