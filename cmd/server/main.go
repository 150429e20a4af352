package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/auth"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/config"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/database"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/logger"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/repository"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/services"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/smtp"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/websocket"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout     = 10 * time.Second
	rateLimiterInterval = time.Minute
	rateLimiterMaxIdle  = 10 * time.Minute
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv()

	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	secLog := logger.NewSecurityLogger()

	slog.Info("Starting LoveLetters Backend Server...")
	cfg.LogConfig(log)

	generated, err := cfg.EnsureJWTSecret()
	if err != nil {
		return err
	}
	if generated {
		log.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	// Database
	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Realtime push
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	authService := services.NewAuthService(userRepo, tokens, log)
	userService := services.NewUserService(userRepo)
	messageService := services.NewMessageService(messageRepo, hub, log)

	// Rate limiting
	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst)
	go limiter.RunCleanup(ctx, rateLimiterInterval, rateLimiterMaxIdle)

	origins := middleware.ParseOrigins(cfg.AllowedOrigins, cfg.IsProduction())

	e := api.NewRouter(&api.RouterConfig{
		DB:             db,
		Logger:         log,
		SecurityLogger: secLog,
		Messages:       messageService,
		Auth:           authService,
		Users:          userService,
		Hub:            hub,
		WebSocket:      websocket.NewHandler(hub, authService, websocket.NewSecureUpgrader(origins, secLog), secLog, log),
		AllowedOrigins: origins,
		RateLimiter:    limiter,
	})

	errCh := make(chan error, 2)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		log.Info("HTTP server listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var smtpServer *gosmtp.Server
	if cfg.SMTPEnabled {
		backend := smtp.NewBackend(&smtp.BackendConfig{
			Messages:       messageService,
			Auth:           authService,
			Users:          userService,
			Domain:         cfg.SMTPDomain,
			Logger:         log,
			SecurityLogger: secLog,
		})
		smtpServer = smtp.NewSecureServer(backend, smtp.LoadServerConfigFromEnv(fmt.Sprintf(":%d", cfg.SMTPPort), cfg.SMTPDomain))

		go func() {
			log.Info("SMTP gateway listening", slog.String("addr", smtpServer.Addr), slog.String("domain", cfg.SMTPDomain))
			if err := smtpServer.ListenAndServe(); err != nil && !errors.Is(err, gosmtp.ErrServerClosed) {
				errCh <- fmt.Errorf("smtp server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	case err := <-errCh:
		stop()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", slog.Any("error", err))
	}
	if smtpServer != nil {
		if err := smtpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("smtp shutdown failed", slog.Any("error", err))
		}
	}

	slog.Info("Server stopped")
	return nil
}
