package middleware // middleware contains reusable HTTP middleware for the service

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stream-user-service/internal/model"
	"github.com/iliyamo/stream-user-service/internal/repository"
	"github.com/iliyamo/stream-user-service/internal/utils"
)

// userContextKey is the echo context key under which the authenticated
// account is stored for downstream handlers.
const userContextKey = "user"

// RequireAuth returns the request gate for protected routes.  It looks for
// an access token in the "accessToken" cookie first, then in the
// Authorization header ("Bearer <token>").  The token is verified against
// the access secret, the account is loaded by the embedded id with the
// password and refresh-token columns excluded, and the scrubbed account is
// attached to the request context.  Any failure along the way responds
// 401 without reaching the handler.  No token rotation happens here.
func RequireAuth(accessSecret string, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized request"})
			}

			claims, err := utils.VerifyAccessToken(accessSecret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid access token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid access token"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
			}

			c.Set(userContextKey, u)
			return next(c)
		}
	}
}

// tokenFromRequest extracts the raw access token.  Cookie wins over header
// so browser sessions keep working even when a stale Authorization header
// is sent alongside.
func tokenFromRequest(c echo.Context) string {
	if ck, err := c.Cookie("accessToken"); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// CurrentUser returns the account attached by RequireAuth.  The bool is
// false when the middleware did not run for this route.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userContextKey).(model.User)
	return u, ok
}
