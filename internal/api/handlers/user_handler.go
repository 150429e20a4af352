package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api/response"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/services"
)

// UserHandler serves the user directory
type UserHandler struct {
	users services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /api/users
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.ListOthers(c.Request().Context(), middleware.Username(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, users)
}
