package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/learn-connect/internal/handler"
	"github.com/iliyamo/learn-connect/internal/metrics"
	"github.com/iliyamo/learn-connect/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the root banner and the health probe.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
}

// RegisterMetrics exposes reg at /metrics.
func RegisterMetrics(e *echo.Echo, reg *prometheus.Registry) {
	e.GET("/metrics", metrics.Handler(reg))
}

// CORS allows the listed frontend origins to call the API with credentials.
func CORS(origins []string) echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
	})
}

// RegisterAuth registers the account lifecycle under /api/auth and the
// signed-in user's profile at /api/auth/me and /api/users/me. Only the
// profile routes run behind JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, p *handler.ProfileHandler, tokens middleware.TokenVerifier) {
	guard := middleware.JWTAuth(tokens)

	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/verify-email", a.VerifyEmail)
	g.POST("/resend-code", a.ResendCode)
	g.POST("/login", a.Login)
	g.GET("/me", p.Me, guard)
	g.PUT("/me", p.UpdateMe, guard)

	users := e.Group("/api/users", guard)
	users.GET("/me", p.Me)
	users.PUT("/me", p.UpdateMe)
}
