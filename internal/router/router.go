package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stream-user-service/internal/handler"
)

// Deps bundles everything route registration needs: the handlers plus the
// middleware built from config and Redis at startup.
type Deps struct {
	Auth      *handler.AuthHandler
	Account   *handler.AccountHandler
	Channel   *handler.ChannelHandler
	Gate      echo.MiddlewareFunc // request gate (access-token verification)
	RateLimit echo.MiddlewareFunc // token bucket on credential endpoints
	Cache     echo.MiddlewareFunc // per-viewer response cache
}

// RegisterRoutes wires every endpoint of the service.
//
// Unauthenticated routes live under /api/v1/users and carry the rate
// limiter: register, login and refresh-token are the credential surface.
// Protected routes additionally run the request gate, which verifies the
// access token and attaches the scrubbed account to the context.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	g := e.Group("/api/v1/users")
	g.Use(d.RateLimit)
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	// Rotates the refresh token on every use; replay of a superseded token
	// is rejected by the handler.
	g.POST("/refresh-token", d.Auth.Refresh)

	auth := e.Group("/api/v1/users")
	auth.Use(d.Gate)
	auth.POST("/logout", d.Auth.Logout)
	auth.POST("/change-password", d.Account.ChangePassword)
	auth.GET("/current-user", d.Account.CurrentUser)
	auth.PATCH("/update-account", d.Account.UpdateAccount)
	auth.PATCH("/avatar", d.Account.UpdateAvatar)
	auth.PATCH("/cover-image", d.Account.UpdateCoverImage)

	// Channel profile is the one read-heavy aggregation; it gets the
	// per-viewer response cache on top of the gate.
	auth.GET("/c/:username", d.Channel.GetChannelProfile, d.Cache)
	auth.POST("/c/:username/subscribe", d.Channel.ToggleSubscription)
}
