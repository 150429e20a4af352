// Package middleware provides HTTP middleware for the LoveLetters API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apperrors "github.com/welldanyogia/webrana-loveletters-backend/internal/errors"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/logger"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/models"
)

// Context keys set by JWTAuth
const (
	ContextKeyUser     = "user"
	ContextKeyUsername = "username"
)

// Authenticator resolves a bearer token to a registered user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// JWTAuth requires a valid bearer token on every request except the
// public paths. The resolved user is stored on the echo context.
func JWTAuth(auth Authenticator, secLog *logger.SecurityLogger, publicPaths ...string) echo.MiddlewareFunc {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if public[path] {
				return next(c)
			}

			token, ok := BearerToken(c.Request())
			if !ok {
				if secLog != nil {
					secLog.AuthFailure(c.RealIP(), path, "missing_bearer_token")
				}
				return unauthorized("missing or malformed authorization header")
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				if !errors.Is(err, apperrors.ErrUnauthorized) {
					return echo.NewHTTPError(http.StatusInternalServerError, map[string]string{
						"error": apperrors.ErrInternal.Error(),
						"code":  apperrors.CodeInternalError,
					}).SetInternal(err)
				}
				if secLog != nil {
					secLog.AuthFailure(c.RealIP(), path, "invalid_token")
				}
				return unauthorized("invalid or expired token")
			}

			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyUsername, user.Username)
			return next(c)
		}
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Username returns the authenticated caller, or "" outside JWTAuth
func Username(c echo.Context) string {
	username, _ := c.Get(ContextKeyUsername).(string)
	return username
}

func unauthorized(message string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
		"error": message,
		"code":  apperrors.CodeUnauthorized,
	})
}
