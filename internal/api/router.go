package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api/handlers"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/logger"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/services"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/websocket"
	"gorm.io/gorm"
)

// Routes that do not require a bearer token
const (
	RegisterPath = "/api/auth/register"
	LoginPath    = "/api/auth/login"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB             *gorm.DB
	Logger         *slog.Logger
	SecurityLogger *logger.SecurityLogger

	Messages services.MessageService
	Auth     services.AuthService
	Users    services.UserService

	// Hub and WebSocket are optional; without them /ws is not mounted
	Hub       *websocket.Hub
	WebSocket *websocket.Handler

	// Security configuration
	AllowedOrigins []string
	RateLimiter    *middleware.IPRateLimiter // shared limiter (nil = build one from RateLimit/RateBurst)
	RateLimit      float64                   // Requests per second
	RateBurst      int                       // Burst size for rate limiter
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Security Middleware (applied in correct order)
	// 1. Recover from panics
	e.Use(middleware.Recover())

	// 2. Request IDs for log correlation
	e.Use(middleware.RequestID())

	// 3. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 4. CORS
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins))

	// 5. Rate limiting
	switch {
	case cfg.RateLimiter != nil:
		e.Use(middleware.RateLimiter(cfg.RateLimiter, cfg.SecurityLogger))
	case cfg.RateLimit > 0:
		e.Use(middleware.RateLimiterWithConfig(cfg.RateLimit, cfg.RateBurst, cfg.SecurityLogger))
	}

	// 6. Request logging
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// Initialize handlers
	var clients handlers.ClientCounter
	if cfg.Hub != nil {
		clients = cfg.Hub
	}
	healthHandler := handlers.NewHealthHandler(cfg.DB, clients)
	authHandler := handlers.NewAuthHandler(cfg.Auth, cfg.SecurityLogger)
	messageHandler := handlers.NewMessageHandler(cfg.Messages, cfg.SecurityLogger)
	userHandler := handlers.NewUserHandler(cfg.Users)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// Push channel authenticates its own handshake
	if cfg.WebSocket != nil {
		e.GET("/ws", cfg.WebSocket.Serve)
	}

	// API routes
	api := e.Group("/api")
	api.Use(middleware.JWTAuth(cfg.Auth, cfg.SecurityLogger, RegisterPath, LoginPath))

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authHandler.Me)

	// User directory
	api.GET("/users", userHandler.List)

	// Message routes; static segments before :id
	messages := api.Group("/messages")
	messages.POST("", messageHandler.Create)
	messages.GET("/inbox", messageHandler.Inbox)
	messages.GET("/sent", messageHandler.Sent)
	messages.GET("/drafts", messageHandler.Drafts)
	messages.GET("/unread-count", messageHandler.UnreadCount)
	messages.GET("/:id", messageHandler.Get)
	messages.PUT("/:id", messageHandler.UpdateDraft)
	messages.DELETE("/:id", messageHandler.Delete)
	messages.POST("/:id/read", messageHandler.MarkAsRead)
	messages.POST("/:id/unlock", messageHandler.Unlock)
	messages.POST("/:id/send", messageHandler.SendDraft)

	return e
}
