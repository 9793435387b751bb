package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adityaprs/klinik-auth/internal/metrics"
	"github.com/adityaprs/klinik-auth/internal/middleware"
)

type Deps struct {
	Auth  *AuthHTTP
	Users *UserHTTP
	Guard *middleware.AuthGuard

	LoginLimiter *middleware.LoginRateLimiter
	Gatherer     prometheus.Gatherer
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(d.Gatherer)))
	}

	var loginMw []echo.MiddlewareFunc
	if d.LoginLimiter != nil {
		loginMw = append(loginMw, d.LoginLimiter.Middleware())
	}

	auth := e.Group("/auth")
	auth.POST("/login/admin", d.Auth.LoginAdmin, loginMw...)
	auth.POST("/login/user", d.Auth.LoginUser, loginMw...)
	auth.GET("/refresh", d.Auth.Refresh, d.Guard.RequireRefresh)
	auth.GET("/logout", d.Auth.Logout, d.Guard.RequireAuth)

	user := e.Group("/user")
	user.POST("", d.Users.Create)
	user.GET("/check-nik/:nik", d.Users.CheckNIK)
	user.PATCH("/:id/role", d.Users.UpdateRole, d.Guard.RequireAuth, d.Guard.AdminOnly)
	if d.Users.ES != nil {
		user.GET("/search", d.Users.Search, d.Guard.RequireAuth, d.Guard.AdminOnly)
	}
}
