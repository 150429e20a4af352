package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/database"
	"gorm.io/gorm"
)

// pingTimeout bounds a health check's database round trip
const pingTimeout = 2 * time.Second

// ClientCounter reports how many realtime clients are connected
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	db      *gorm.DB
	clients ClientCounter
}

// NewHealthHandler creates a new HealthHandler. clients may be nil.
func NewHealthHandler(db *gorm.DB, clients ClientCounter) *HealthHandler {
	return &HealthHandler{db: db, clients: clients}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string            `json:"status"`
	Services         map[string]string `json:"services"`
	WebSocketClients *int              `json:"websocket_clients,omitempty"`
}

func (h *HealthHandler) ping(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()
	return database.Ping(ctx, h.db)
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	services := make(map[string]string)
	status := "healthy"

	if err := h.ping(c); err != nil {
		services["database"] = "unhealthy"
		status = "unhealthy"
	} else {
		services["database"] = "healthy"
	}

	resp := HealthResponse{
		Status:   status,
		Services: services,
	}
	if h.clients != nil {
		n := h.clients.ClientCount()
		resp.WebSocketClients = &n
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, resp)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c echo.Context) error {
	if err := h.ping(c); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database ping failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}
