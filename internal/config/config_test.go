package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DatabaseURL:    "postgres://localhost/test",
		DatabaseDriver: "postgres",
		APIPort:        8080,
		SMTPPort:       2525,
		SMTPDomain:     "localhost",
		TokenTTL:       time.Hour,
	}
}

func productionConfig() *Config {
	cfg := validConfig()
	cfg.AppEnv = "production"
	cfg.JWTSecret = strings.Repeat("k", 32)
	cfg.AllowedOrigins = "https://letters.example.com"
	cfg.DatabaseURL = "postgres://localhost/test?sslmode=require"
	return cfg
}

func TestLoad_RequiredDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.False(t, cfg.SMTPEnabled)
	assert.Equal(t, "localhost", cfg.SMTPDomain)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10.0, cfg.RateLimitRequests)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:letters.db")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("SMTP_ENABLED", "true")
	t.Setenv("SMTP_DOMAIN", " Letters.Example.com ")
	t.Setenv("JWT_SECRET", "my-secret")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,http://example.com")
	t.Setenv("APP_ENV", "staging")
	t.Setenv("RATE_LIMIT_REQUESTS", "20")
	t.Setenv("RATE_LIMIT_BURST", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.True(t, cfg.SMTPEnabled)
	assert.Equal(t, "letters.example.com", cfg.SMTPDomain)
	assert.Equal(t, "my-secret", cfg.JWTSecret)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "http://localhost:3000,http://example.com", cfg.AllowedOrigins)
	assert.Equal(t, "staging", cfg.AppEnv)
	assert.Equal(t, 20.0, cfg.RateLimitRequests)
	assert.Equal(t, 50, cfg.RateLimitBurst)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"API_PORT", "http", "API_PORT must be a valid integer"},
		{"SMTP_PORT", "x", "SMTP_PORT must be a valid integer"},
		{"SMTP_ENABLED", "maybe", "SMTP_ENABLED must be a valid boolean"},
		{"TOKEN_TTL", "forever", "TOKEN_TTL must be a valid duration"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/test")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.APIPort = 0
	assert.ErrorContains(t, cfg.Validate(), "APIPort")

	cfg = validConfig()
	cfg.DatabaseDriver = "mysql"
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_DRIVER")

	cfg = validConfig()
	cfg.SMTPEnabled = true
	cfg.SMTPDomain = "not a domain"
	assert.ErrorContains(t, cfg.Validate(), "SMTP_DOMAIN")

	cfg = validConfig()
	cfg.TokenTTL = 0
	assert.ErrorContains(t, cfg.Validate(), "TOKEN_TTL")
}

func TestValidateProduction(t *testing.T) {
	assert.NoError(t, productionConfig().ValidateProduction())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "at least 32 characters"},
		{"missing origins", func(c *Config) { c.AllowedOrigins = "" }, "ALLOWED_ORIGINS is required"},
		{"wildcard origins", func(c *Config) { c.AllowedOrigins = "*" }, "wildcard"},
		{"sqlite", func(c *Config) { c.DatabaseDriver = "sqlite" }, "must be postgres"},
		{"ssl disabled", func(c *Config) { c.DatabaseURL = "postgres://localhost/test?sslmode=disable" }, "sslmode=disable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := productionConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.ValidateProduction(), tt.want)
		})
	}
}

func TestLoadWithValidation_FailFast(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test?sslmode=disable")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", strings.Repeat("k", 32))
	t.Setenv("ALLOWED_ORIGINS", "http://example.com")

	_, err := LoadWithValidation()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sslmode=disable")
}

func TestLoadWithValidation_DevelopmentAllowsInsecure(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test?sslmode=disable")
	t.Setenv("APP_ENV", "development")

	cfg, err := LoadWithValidation()
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.False(t, cfg.IsProduction())
}

func TestEnsureJWTSecret(t *testing.T) {
	cfg := validConfig()

	generated, err := cfg.EnsureJWTSecret()
	require.NoError(t, err)
	assert.True(t, generated)
	assert.Len(t, cfg.JWTSecret, 64)

	secret := cfg.JWTSecret
	generated, err = cfg.EnsureJWTSecret()
	require.NoError(t, err)
	assert.False(t, generated)
	assert.Equal(t, secret, cfg.JWTSecret)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOVELETTERS_DOTENV_VALUE=from-file\nLOVELETTERS_DOTENV_SET=from-file\n"), 0o600))

	t.Setenv("LOVELETTERS_DOTENV_SET", "from-env")
	t.Cleanup(func() { os.Unsetenv("LOVELETTERS_DOTENV_VALUE") })

	LoadDotEnv(filepath.Join(dir, "missing.env"), path)

	assert.Equal(t, "from-file", os.Getenv("LOVELETTERS_DOTENV_VALUE"))
	assert.Equal(t, "from-env", os.Getenv("LOVELETTERS_DOTENV_SET"))
}
