package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/welldanyogia/webrana-loveletters-backend/internal/errors"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/models"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/repository"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/validator"
)

// CreateMessageInput is the payload for composing a letter
type CreateMessageInput struct {
	Recipient  string  `json:"recipient"`
	Content    string  `json:"content"`
	SecretCode *string `json:"secret_code,omitempty"`
	IsDraft    bool    `json:"is_draft"`
}

// UpdateDraftInput replaces the editable fields of a draft
type UpdateDraftInput struct {
	Recipient  string  `json:"recipient"`
	Content    string  `json:"content"`
	SecretCode *string `json:"secret_code,omitempty"`
}

// Page selects a window of a folder listing
type Page struct {
	Limit  int
	Offset int
}

// MessageList is one page of a folder
type MessageList struct {
	Items  []models.MessageView `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// MessageService is the letter store. Every method takes the caller's
// username explicitly and applies Authorize before touching a record.
type MessageService interface {
	Create(ctx context.Context, sender string, input CreateMessageInput) (*models.MessageView, error)
	GetByID(ctx context.Context, caller, id string) (*models.MessageView, error)
	ListInbox(ctx context.Context, caller string, page Page) (*MessageList, error)
	ListSent(ctx context.Context, caller string, page Page) (*MessageList, error)
	ListDrafts(ctx context.Context, caller string, page Page) (*MessageList, error)
	MarkRead(ctx context.Context, caller, id string) (*models.MessageView, error)
	Unlock(ctx context.Context, caller, id, code string) (*models.MessageView, error)
	Delete(ctx context.Context, caller, id string) error
	UpdateDraft(ctx context.Context, caller, id string, input UpdateDraftInput) (*models.MessageView, error)
	SendDraft(ctx context.Context, caller, id string) (*models.MessageView, error)
	UnreadCount(ctx context.Context, caller string) (int64, error)
}

// messageService implements MessageService on top of a MessageRepository
type messageService struct {
	repo     repository.MessageRepository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewMessageService creates a new MessageService
func NewMessageService(repo repository.MessageRepository, notifier Notifier, logger *slog.Logger) MessageService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &messageService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var (
	errNotGated       = apperrors.NewAppError(apperrors.ErrInvalidState, "message is not protected by a secret code", apperrors.CodeInvalidState)
	errAlreadySent    = apperrors.NewAppError(apperrors.ErrInvalidState, "message has already been sent", apperrors.CodeInvalidState)
	errMissingContent = apperrors.Validation("content is required")
	errMissingRecip   = apperrors.Validation("recipient is required")
)

// Create stores a new letter or draft for sender
func (s *messageService) Create(ctx context.Context, sender string, input CreateMessageInput) (*models.MessageView, error) {
	if sender == "" {
		return nil, apperrors.ErrUnauthorized
	}

	recipient, err := normalizeRecipient(input.Recipient)
	if err != nil {
		return nil, err
	}
	if err := validateSecret(input.SecretCode); err != nil {
		return nil, err
	}
	if !input.IsDraft {
		if err := validateDeliverable(recipient, input.Content); err != nil {
			return nil, err
		}
	}

	msg := &models.Message{
		Sender:     sender,
		Recipient:  recipient,
		Content:    input.Content,
		SecretCode: normalizeSecret(input.SecretCode),
		IsDraft:    input.IsDraft,
		CreatedAt:  s.now(),
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	s.logger.Info("message created",
		slog.String("message_id", msg.ID),
		slog.Bool("draft", msg.IsDraft),
		slog.Bool("gated", msg.IsGated()))

	if !msg.IsDraft {
		s.notifier.NotifyNewMessage(msg.Recipient, msg)
	}

	view := msg.ViewFor(sender)
	return &view, nil
}

// GetByID returns the caller's view of a letter. The first retrieval of an
// ungated letter by its recipient sets the read marker.
func (s *messageService) GetByID(ctx context.Context, caller, id string) (*models.MessageView, error) {
	msg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if Authorize(caller, msg, OpView) != Allow {
		return nil, apperrors.ErrMessageNotFound
	}

	if Authorize(caller, msg, OpMarkRead) == Allow {
		msg, err = s.markRead(ctx, msg)
		if err != nil {
			return nil, err
		}
	}

	view := msg.ViewFor(caller)
	return &view, nil
}

// ListInbox lists delivered letters addressed to caller
func (s *messageService) ListInbox(ctx context.Context, caller string, page Page) (*MessageList, error) {
	return s.list(ctx, caller, repository.FolderInbox, page)
}

// ListSent lists delivered letters written by caller
func (s *messageService) ListSent(ctx context.Context, caller string, page Page) (*MessageList, error) {
	return s.list(ctx, caller, repository.FolderSent, page)
}

// ListDrafts lists caller's unsent drafts
func (s *messageService) ListDrafts(ctx context.Context, caller string, page Page) (*MessageList, error) {
	return s.list(ctx, caller, repository.FolderDrafts, page)
}

func (s *messageService) list(ctx context.Context, caller string, folder repository.Folder, page Page) (*MessageList, error) {
	if caller == "" {
		return nil, apperrors.ErrUnauthorized
	}

	limit, offset := validator.ValidatePagination(page.Limit, page.Offset)
	messages, total, err := s.repo.ListByFolder(ctx, caller, folder, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", folder, err)
	}

	items := make([]models.MessageView, 0, len(messages))
	for i := range messages {
		items = append(items, messages[i].ViewFor(caller))
	}

	return &MessageList{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// MarkRead sets the read marker of an ungated letter. Gated or already read
// letters are returned unchanged.
func (s *messageService) MarkRead(ctx context.Context, caller, id string) (*models.MessageView, error) {
	msg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch Authorize(caller, msg, OpMarkRead) {
	case Allow:
		msg, err = s.markRead(ctx, msg)
		if err != nil {
			return nil, err
		}
	case Noop:
	default:
		return nil, apperrors.ErrMessageNotFound
	}

	view := msg.ViewFor(caller)
	return &view, nil
}

// Unlock reveals a gated letter to its recipient when code matches.
// A wrong code changes nothing and may be retried.
func (s *messageService) Unlock(ctx context.Context, caller, id, code string) (*models.MessageView, error) {
	msg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch Authorize(caller, msg, OpUnlock) {
	case Allow:
	case Invalid:
		return nil, errNotGated
	default:
		return nil, apperrors.ErrMessageNotFound
	}

	if !secretMatches(*msg.SecretCode, code) {
		s.logger.Warn("unlock rejected", slog.String("message_id", msg.ID))
		return nil, apperrors.ErrSecretMismatch
	}

	if !msg.IsRead() {
		msg, err = s.markRead(ctx, msg)
		if err != nil {
			return nil, err
		}
	}

	view := msg.ViewFor(caller)
	return &view, nil
}

// Delete permanently removes a letter visible to caller
func (s *messageService) Delete(ctx context.Context, caller, id string) error {
	msg, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if Authorize(caller, msg, OpDelete) != Allow {
		return apperrors.ErrMessageNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrMessageNotFound
		}
		return fmt.Errorf("deleting message: %w", err)
	}

	s.logger.Info("message deleted", slog.String("message_id", id))
	return nil
}

// UpdateDraft edits a draft in place
func (s *messageService) UpdateDraft(ctx context.Context, caller, id string, input UpdateDraftInput) (*models.MessageView, error) {
	msg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := draftDecision(Authorize(caller, msg, OpEditDraft)); err != nil {
		return nil, err
	}

	recipient, err := normalizeRecipient(input.Recipient)
	if err != nil {
		return nil, err
	}
	if err := validateSecret(input.SecretCode); err != nil {
		return nil, err
	}

	changes := repository.DraftChanges{
		Recipient:  recipient,
		Content:    input.Content,
		SecretCode: normalizeSecret(input.SecretCode),
	}
	if err := s.repo.UpdateDraft(ctx, id, changes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.lostDraft(ctx, id)
		}
		return nil, fmt.Errorf("updating draft: %w", err)
	}

	msg, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := msg.ViewFor(caller)
	return &view, nil
}

// SendDraft delivers a draft. A letter is sent at most once.
func (s *messageService) SendDraft(ctx context.Context, caller, id string) (*models.MessageView, error) {
	msg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := draftDecision(Authorize(caller, msg, OpEditDraft)); err != nil {
		return nil, err
	}

	if err := validateDeliverable(msg.Recipient, msg.Content); err != nil {
		return nil, err
	}

	sent, err := s.repo.MarkSent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sending draft: %w", err)
	}
	if !sent {
		return nil, s.lostDraft(ctx, id)
	}

	msg, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("draft sent", slog.String("message_id", id))
	s.notifier.NotifyNewMessage(msg.Recipient, msg)

	view := msg.ViewFor(caller)
	return &view, nil
}

// UnreadCount counts delivered letters caller has not read yet
func (s *messageService) UnreadCount(ctx context.Context, caller string) (int64, error) {
	if caller == "" {
		return 0, apperrors.ErrUnauthorized
	}
	count, err := s.repo.CountUnread(ctx, caller)
	if err != nil {
		return 0, fmt.Errorf("counting unread: %w", err)
	}
	return count, nil
}

// load fetches a record, folding absence into the single denial error
func (s *messageService) load(ctx context.Context, id string) (*models.Message, error) {
	if id == "" {
		return nil, apperrors.ErrMessageNotFound
	}
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("loading message: %w", err)
	}
	return msg, nil
}

// markRead applies the read marker and returns the stored record. The
// conditional update lets exactly one concurrent caller win; everyone
// reloads and so reports the same timestamp.
func (s *messageService) markRead(ctx context.Context, msg *models.Message) (*models.Message, error) {
	changed, err := s.repo.MarkReadIfUnread(ctx, msg.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("marking read: %w", err)
	}

	current, err := s.load(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("message read", slog.String("message_id", current.ID), slog.Bool("gated", current.IsGated()))
		s.notifier.NotifyMessageRead(current.Sender, current)
	}
	return current, nil
}

// lostDraft explains why a conditional draft update matched no row
func (s *messageService) lostDraft(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return errAlreadySent
}

func draftDecision(d Decision) error {
	switch d {
	case Allow:
		return nil
	case Invalid:
		return errAlreadySent
	default:
		return apperrors.ErrMessageNotFound
	}
}

func validateDeliverable(recipient, content string) error {
	if strings.TrimSpace(recipient) == "" {
		return errMissingRecip
	}
	if strings.TrimSpace(content) == "" {
		return errMissingContent
	}
	return nil
}

// normalizeRecipient lower-cases and trims a recipient. A non-empty result
// must be a valid username as typed; nothing is stripped or truncated.
func normalizeRecipient(recipient string) (string, error) {
	username := validator.NormalizeUsername(recipient)
	if username == "" {
		return "", nil
	}
	if err := validator.ValidateUsername(username); err != nil {
		return "", apperrors.NewAppError(apperrors.ErrInvalidInput, "recipient: "+err.Error(), apperrors.CodeInvalidInput)
	}
	return username, nil
}

func validateSecret(code *string) error {
	if code == nil {
		return nil
	}
	if err := validator.ValidateSecretCode(*code); err != nil {
		return apperrors.NewAppError(apperrors.ErrInvalidInput, "secret_code: "+err.Error(), apperrors.CodeInvalidInput)
	}
	return nil
}

func normalizeSecret(code *string) *string {
	if code == nil || *code == "" {
		return nil
	}
	c := *code
	return &c
}

// secretMatches compares fixed-length digests so the comparison takes the
// same path whatever the lengths or shared prefix of the inputs.
func secretMatches(stored, supplied string) bool {
	a := sha256.Sum256([]byte(stored))
	b := sha256.Sum256([]byte(supplied))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
