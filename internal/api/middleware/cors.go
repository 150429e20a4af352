package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DefaultOrigin is allowed when no origins are configured
const DefaultOrigin = "http://localhost:3000"

// ParseOrigins splits a comma separated ALLOWED_ORIGINS value. Wildcards are
// dropped in production and an empty result falls back to DefaultOrigin.
func ParseOrigins(raw string, production bool) []string {
	origins := make([]string, 0)
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o == "" || (production && o == "*") {
			continue
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		origins = []string{DefaultOrigin}
	}
	return origins
}

// SecureCORS returns CORS middleware restricted to the given origins
func SecureCORS(origins []string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		origins = []string{DefaultOrigin}
	}

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
