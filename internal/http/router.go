package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/soumadip-dev/AuthSystem-API/internal/auth"
	"github.com/soumadip-dev/AuthSystem-API/internal/config"
	"github.com/soumadip-dev/AuthSystem-API/internal/httputil"
	"github.com/soumadip-dev/AuthSystem-API/internal/logging"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, authHandler *auth.Handler, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first; credentials are allowed so the session cookie
	// works from the configured frontend origin
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Account routes
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", authHandler.Register)
		r.Post("/verification/confirm", authHandler.VerifyAccount)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Post("/verification", authHandler.RequestVerification)
			r.Get("/me", authHandler.GetCurrentAccount)
		})
	})

	// Session routes
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Delete("/", authHandler.Logout)
		})
	})

	// Password reset routes (identity proven by emailed token, no session)
	r.Route("/password-resets", func(r chi.Router) {
		r.Post("/", authHandler.ForgotPassword)
		r.Post("/confirm", authHandler.ResetPassword)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
