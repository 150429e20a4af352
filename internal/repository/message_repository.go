package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/welldanyogia/webrana-loveletters-backend/internal/models"
	"gorm.io/gorm"
)

// Folder selects which of a user's letters a list query returns
type Folder string

const (
	FolderInbox  Folder = "inbox"
	FolderSent   Folder = "sent"
	FolderDrafts Folder = "drafts"
)

// DraftChanges holds the mutable fields of a draft
type DraftChanges struct {
	Recipient  string
	Content    string
	SecretCode *string
}

// MessageRepository defines the interface for message data access.
// Every mutation is a single conditional statement so that concurrent
// callers on the same id converge without application-level locks.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByFolder(ctx context.Context, owner string, folder Folder, limit, offset int) ([]models.Message, int64, error)
	MarkReadIfUnread(ctx context.Context, id string, at time.Time) (bool, error)
	UpdateDraft(ctx context.Context, id string, changes DraftChanges) error
	MarkSent(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	CountUnread(ctx context.Context, recipient string) (int64, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create creates a new message
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	result := r.db.WithContext(ctx).Create(message)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("message '%s' already exists: %w", message.ID, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create message: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a message by its ID
func (r *messageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&message)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", result.Error)
	}
	return &message, nil
}

// ListByFolder retrieves a user's letters for one folder, newest first
func (r *messageRepository) ListByFolder(ctx context.Context, owner string, folder Folder, limit, offset int) ([]models.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Message{})

	switch folder {
	case FolderInbox:
		query = query.Where("recipient = ? AND is_draft = ?", owner, false)
	case FolderSent:
		query = query.Where("sender = ? AND is_draft = ?", owner, false)
	case FolderDrafts:
		query = query.Where("sender = ? AND is_draft = ?", owner, true)
	default:
		return nil, 0, fmt.Errorf("unknown folder %q: %w", folder, ErrInvalidInput)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []models.Message
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, total, nil
}

// MarkReadIfUnread sets read_at only when it is still NULL.
// Reports whether this call performed the transition.
func (r *messageRepository) MarkReadIfUnread(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark message as read: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// UpdateDraft rewrites a draft in place; sent letters are never touched
func (r *messageRepository) UpdateDraft(ctx context.Context, id string, changes DraftChanges) error {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND is_draft = ?", id, true).
		Updates(map[string]interface{}{
			"recipient":   changes.Recipient,
			"content":     changes.Content,
			"secret_code": changes.SecretCode,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update draft: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSent clears the draft flag. Reports whether this call performed the transition.
func (r *messageRepository) MarkSent(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND is_draft = ?", id, true).
		Update("is_draft", false)
	if result.Error != nil {
		return false, fmt.Errorf("failed to send draft: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Delete permanently removes a message by its ID
func (r *messageRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnread counts delivered letters the recipient has not read yet
func (r *messageRepository) CountUnread(ctx context.Context, recipient string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient = ? AND is_draft = ? AND read_at IS NULL", recipient, false).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", result.Error)
	}
	return count, nil
}
