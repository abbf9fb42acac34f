package routes

import (
	"net/http"

	"github.com/BradenHooton/auth-service/internal/auth"
	"github.com/BradenHooton/auth-service/internal/handlers"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes. metricsHandler may be nil.
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	verifier auth.SessionVerifier,
	metricsHandler http.Handler,
) {
	// Public routes - credentials travel in the body or the session cookie
	router.Post("/signup", authHandler.Signup)
	router.Post("/login", authHandler.Login)
	router.Post("/verify-2fa", authHandler.Verify2FA)
	router.Post("/logout", authHandler.Logout)
	router.Post("/verify-token", authHandler.VerifyToken)

	// Protected routes - live session cookie required
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(verifier))
		r.Get("/session", authHandler.Session)
	})

	router.Get("/health", healthHandler.Health)
	if metricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", metricsHandler)
	}
}
