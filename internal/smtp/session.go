package smtp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	apperrors "github.com/welldanyogia/webrana-loveletters-backend/internal/errors"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/services"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/validator"
)

// deliveryTimeout bounds the store calls made for one DATA command
const deliveryTimeout = 30 * time.Second

var (
	errInvalidRecipient = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 1, 1},
		Message:      "Invalid recipient address",
	}
	errUnknownDomain = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 1, 2},
		Message:      "Domain not handled here",
	}
	errUnknownUser = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 1, 1},
		Message:      "User not found",
	}
	errTemporary = &smtp.SMTPError{
		Code:         451,
		EnhancedCode: smtp.EnhancedCode{4, 3, 0},
		Message:      "Temporary error",
	}
	errNoRecipients = &smtp.SMTPError{
		Code:         503,
		EnhancedCode: smtp.EnhancedCode{5, 5, 1},
		Message:      "No recipients specified",
	}
	errInvalidSender = &smtp.SMTPError{
		Code:         553,
		EnhancedCode: smtp.EnhancedCode{5, 1, 7},
		Message:      "Invalid sender address",
	}
	errUnparseable = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 6, 0},
		Message:      "Failed to parse letter",
	}
)

// Session implements the go-smtp Session and AuthSession interfaces
type Session struct {
	backend    *Backend
	remoteAddr string
	username   string
	from       string
	recipients []string
}

var _ smtp.AuthSession = (*Session)(nil)

// NewSession creates a new SMTP session
func NewSession(backend *Backend, remoteAddr string) *Session {
	return &Session{
		backend:    backend,
		remoteAddr: remoteAddr,
		recipients: make([]string, 0),
	}
}

// Username returns the authenticated user, or "" before AUTH
func (s *Session) Username() string {
	return s.username
}

// AuthMechanisms lists the supported SASL mechanisms
func (s *Session) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

// Auth handles AUTH PLAIN against the user directory
func (s *Session) Auth(mech string) (sasl.Server, error) {
	if mech != sasl.Plain {
		return nil, smtp.ErrAuthUnknownMechanism
	}

	return sasl.NewPlainServer(func(identity, username, password string) error {
		if identity != "" && identity != username {
			return smtp.ErrAuthFailed
		}

		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()

		user, err := s.backend.auth.VerifyCredentials(ctx, username, password)
		if err != nil {
			if s.backend.secLog != nil {
				s.backend.secLog.SMTPAuthFailure(s.remoteAddr, username)
			}
			if errors.Is(err, apperrors.ErrInvalidCredentials) {
				return smtp.ErrAuthFailed
			}
			return errTemporary
		}

		s.username = user.Username
		return nil
	}), nil
}

// Mail handles the MAIL FROM command
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	if s.username == "" {
		return smtp.ErrAuthRequired
	}
	if err := validator.ValidateEmail(from); err != nil {
		return errInvalidSender
	}

	s.from = from
	if s.backend.logger != nil {
		s.backend.logger.Debug("MAIL FROM", slog.String("from", from), slog.String("username", s.username))
	}
	return nil
}

// Rcpt handles the RCPT TO command. Recipients must be registered users
// addressed at the gateway's domain.
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	if s.username == "" {
		return smtp.ErrAuthRequired
	}

	localPart, domainName, err := parseEmailAddress(to)
	if err != nil {
		return errInvalidRecipient
	}
	if !strings.EqualFold(domainName, s.backend.domain) {
		return errUnknownDomain
	}

	username := validator.NormalizeUsername(localPart)
	if err := validator.ValidateUsername(username); err != nil {
		return errInvalidRecipient
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	exists, err := s.backend.users.Exists(ctx, username)
	if err != nil {
		if s.backend.logger != nil {
			s.backend.logger.Error("recipient lookup failed", slog.String("to", to), slog.Any("error", err))
		}
		return errTemporary
	}
	if !exists {
		return errUnknownUser
	}

	s.recipients = append(s.recipients, username)
	if s.backend.logger != nil {
		s.backend.logger.Debug("RCPT TO", slog.String("to", to), slog.String("recipient", username))
	}
	return nil
}

// Data handles the DATA command. Each accepted recipient receives the
// letter as a sent message from the authenticated user. Delivery is all or
// nothing: when one recipient fails, letters already created in this
// transaction are deleted and the whole DATA is rejected.
func (s *Session) Data(r io.Reader) error {
	if s.username == "" {
		return smtp.ErrAuthRequired
	}
	if len(s.recipients) == 0 {
		return errNoRecipients
	}

	letter, err := ParseLetter(r)
	if err != nil {
		if s.backend.logger != nil {
			s.backend.logger.Error("failed to parse letter", slog.Any("error", err))
		}
		return errUnparseable
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	created := make([]string, 0, len(s.recipients))
	for _, recipient := range s.recipients {
		id, err := s.deliver(ctx, recipient, letter)
		if err != nil {
			if s.backend.logger != nil {
				s.backend.logger.Error("failed to deliver letter",
					slog.String("recipient", recipient),
					slog.Int("rolled_back", len(created)),
					slog.Any("error", err))
			}
			s.rollback(ctx, created)

			if apperrors.IsInvalidInput(err) {
				return &smtp.SMTPError{
					Code:         554,
					EnhancedCode: smtp.EnhancedCode{5, 6, 0},
					Message:      err.Error(),
				}
			}
			return errTemporary
		}
		created = append(created, id)
	}

	if s.backend.logger != nil {
		s.backend.logger.Info("letter submitted",
			slog.String("sender", s.username),
			slog.Int("recipients", len(created)))
	}

	return nil
}

func (s *Session) deliver(ctx context.Context, recipient string, letter *ParsedLetter) (string, error) {
	view, err := s.backend.messages.Create(ctx, s.username, services.CreateMessageInput{
		Recipient:  recipient,
		Content:    letter.Text(),
		SecretCode: letter.SecretCode,
	})
	if err != nil {
		return "", fmt.Errorf("creating letter for %s: %w", recipient, err)
	}
	return view.ID, nil
}

// rollback removes the letters created before a failed delivery
func (s *Session) rollback(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.backend.messages.Delete(ctx, s.username, id); err != nil && s.backend.logger != nil {
			s.backend.logger.Error("failed to roll back letter",
				slog.String("message_id", id),
				slog.Any("error", err))
		}
	}
}

// Reset resets the transaction state; authentication survives RSET
func (s *Session) Reset() {
	s.from = ""
	s.recipients = make([]string, 0)
}

// Logout handles the end of the session
func (s *Session) Logout() error {
	return nil
}

// parseEmailAddress parses an email address into local part and domain
func parseEmailAddress(address string) (localPart, domain string, err error) {
	// Remove angle brackets if present
	address = strings.TrimPrefix(address, "<")
	address = strings.TrimSuffix(address, ">")
	address = strings.TrimSpace(address)

	parts := strings.Split(address, "@")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid email address: %s", address)
	}

	localPart = strings.ToLower(parts[0])
	domain = strings.ToLower(parts[1])

	if localPart == "" || domain == "" {
		return "", "", fmt.Errorf("invalid email address: %s", address)
	}

	return localPart, domain, nil
}
