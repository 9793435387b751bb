package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adityaprs/klinik-auth/internal/logging"
	"github.com/adityaprs/klinik-auth/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) LoginAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login_admin")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	pair, err := h.Svc.LoginAdmin(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			return echo.NewHTTPError(http.StatusUnauthorized, service.ErrAccessDenied.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHTTP) LoginUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login_user")

	var req struct {
		NIK  string `json:"nik"`
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.NIK == "" || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "nik and name are required")
	}

	pair, err := h.Svc.LoginUser(ctx, req.NIK, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			return echo.NewHTTPError(http.StatusUnauthorized, service.ErrAccessDenied.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, pair)
}

// Refresh runs behind the refresh-token guard, which already verified the
// token signature and put the subject and raw token on the context.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _ := c.Get("user_id").(string)
	rawToken, _ := c.Get("refresh_token").(string)

	accessToken, err := h.Svc.Refresh(ctx, userID, rawToken)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			return echo.NewHTTPError(http.StatusUnauthorized, service.ErrAccessDenied.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"accessToken": accessToken})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _ := c.Get("user_id").(string)

	if err := h.Svc.Logout(ctx, userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
