package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adityaprs/klinik-auth/internal/models"
	"github.com/adityaprs/klinik-auth/internal/tokens"
)

type AuthGuard struct {
	JWTSecret     []byte
	RefreshSecret []byte
}

func NewAuthGuard(jwtSecret, refreshSecret []byte) *AuthGuard {
	return &AuthGuard{JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// RequireAuth validates the access token and puts the caller's identity
// on the request context.
func (m *AuthGuard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.ParseAccess(raw, m.JWTSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("user_id", claims.Subject)
		c.Set("role", claims.Role)
		return next(c)
	}
}

// RequireRefresh validates the refresh token's signature and expiry and
// exposes the subject plus the raw token. The hash comparison against the
// store happens in the service, not here.
func (m *AuthGuard) RequireRefresh(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
		}

		claims, err := tokens.ParseRefresh(raw, m.RefreshSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("user_id", claims.Subject)
		c.Set("refresh_token", raw)
		return next(c)
	}
}

// AdminOnly must run after RequireAuth.
func (m *AuthGuard) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get("role").(models.Role)
		if !ok || role != models.RoleAdminFaskes {
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
		return next(c)
	}
}
