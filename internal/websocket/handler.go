package websocket

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api/response"
	apperrors "github.com/welldanyogia/webrana-loveletters-backend/internal/errors"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/logger"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/models"
)

// Authenticator resolves a bearer token to a registered user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Handler upgrades GET /ws for authenticated users
type Handler struct {
	hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
	secLog   *logger.SecurityLogger
	logger   *slog.Logger
}

// NewHandler creates a new Handler
func NewHandler(hub *Hub, auth Authenticator, upgrader websocket.Upgrader, secLog *logger.SecurityLogger, logger *slog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		auth:     auth,
		upgrader: upgrader,
		secLog:   secLog,
		logger:   logger,
	}
}

// Serve handles GET /ws. Browsers cannot set headers on a WebSocket
// handshake, so the token may also come from the "token" query parameter.
func (h *Handler) Serve(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token, _ = middleware.BearerToken(c.Request())
	}
	if token == "" {
		if h.secLog != nil {
			h.secLog.AuthFailure(c.RealIP(), c.Path(), "missing_token")
		}
		return response.Unauthorized(c, "missing token")
	}

	user, err := h.auth.Authenticate(c.Request().Context(), token)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUnauthorized) {
			if h.logger != nil {
				h.logger.Error("websocket authentication failed", slog.Any("error", err))
			}
			return response.Error(c, err)
		}
		if h.secLog != nil {
			h.secLog.AuthFailure(c.RealIP(), c.Path(), "invalid_token")
		}
		return response.Unauthorized(c, "invalid or expired token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		return nil
	}

	client := NewClient(h.hub, conn, user.Username, h.logger)
	if !h.hub.Register(client) {
		conn.Close()
		return nil
	}

	go client.WritePump()
	client.ReadPump()
	return nil
}
