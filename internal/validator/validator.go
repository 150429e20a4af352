// Package validator provides input validation and sanitization functions
// for the LoveLetters backend.
package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrInvalidDomain    = errors.New("invalid domain format")
	ErrInvalidUsername  = errors.New("username may contain only lowercase letters, digits, dots, underscores and hyphens")
	ErrInputTooLong     = errors.New("input exceeds maximum length")
	ErrInputTooShort    = errors.New("input is too short")
	ErrInvalidCharacter = errors.New("input contains invalid characters")
	ErrEmptyInput       = errors.New("input cannot be empty")
)

// Length limits
const (
	MaxUsernameLength   = 64
	MinPasswordLength   = 8
	MaxPasswordLength   = 128
	MaxSecretCodeLength = 255
)

// Regex patterns for validation
var (
	// Domain regex: allows lowercase alphanumeric, hyphens, and dots
	// Must start and end with alphanumeric, labels max 63 chars
	domainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

	// Usernames double as the local part of SMTP gateway addresses
	usernameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)
)

// ValidateEmail validates email address format according to RFC 5322.
// Returns nil if valid, or an appropriate error.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" {
		return ErrEmptyInput
	}

	// RFC 5321 specifies max email length of 254 characters
	if utf8.RuneCountInString(email) > 254 {
		return ErrInputTooLong
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateDomain validates domain name format against DNS standards.
func ValidateDomain(domain string) error {
	domain = strings.TrimSpace(strings.ToLower(domain))

	if domain == "" {
		return ErrEmptyInput
	}

	if len(domain) > 253 {
		return ErrInputTooLong
	}

	if !domainRegex.MatchString(domain) {
		return ErrInvalidDomain
	}

	return nil
}

// NormalizeUsername trims and lowercases a username
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername validates an already normalized username
func ValidateUsername(username string) error {
	if username == "" {
		return ErrEmptyInput
	}

	if len(username) > MaxUsernameLength {
		return ErrInputTooLong
	}

	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}

	return nil
}

// ValidatePassword enforces length bounds only
func ValidatePassword(password string) error {
	if password == "" {
		return ErrEmptyInput
	}

	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return ErrInputTooShort
	}
	if n > MaxPasswordLength {
		return ErrInputTooLong
	}

	return nil
}

// ValidateSecretCode checks an optional secret code. Empty means no code.
func ValidateSecretCode(code string) error {
	if utf8.RuneCountInString(code) > MaxSecretCodeLength {
		return ErrInputTooLong
	}
	if strings.ContainsRune(code, 0) {
		return ErrInvalidCharacter
	}
	return nil
}

// Pagination constants
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ValidatePagination validates and sanitizes pagination parameters.
// Returns sanitized limit and offset values.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// SanitizeString removes potentially dangerous characters and enforces length limits.
// Removes control characters and trims whitespace.
func SanitizeString(input string, maxLength int) string {
	// Remove control characters (ASCII 0-31 and 127)
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	input = strings.TrimSpace(input)

	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}
