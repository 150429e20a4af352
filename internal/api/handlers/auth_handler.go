package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api/response"
	apperrors "github.com/welldanyogia/webrana-loveletters-backend/internal/errors"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/logger"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/services"
)

// AuthHandler handles registration, login and the current user
type AuthHandler struct {
	auth   services.AuthService
	secLog *logger.SecurityLogger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth services.AuthService, secLog *logger.SecurityLogger) *AuthHandler {
	return &AuthHandler{auth: auth, secLog: secLog}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req services.RegisterInput
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	res, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, res)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req services.LoginInput
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	res, err := h.auth.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) && h.secLog != nil {
			h.secLog.AuthFailure(c.RealIP(), c.Path(), "invalid_credentials")
		}
		return response.Error(c, err)
	}

	return response.Success(c, res)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.auth.Me(c.Request().Context(), middleware.Username(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}
