package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/models"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/repository"
)

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Create creates a new message
func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// GetByID retrieves a message by its ID
func (m *MockMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// ListByFolder retrieves a page of one owner's folder
func (m *MockMessageRepository) ListByFolder(ctx context.Context, owner string, folder repository.Folder, limit, offset int) ([]models.Message, int64, error) {
	args := m.Called(ctx, owner, folder, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Message), args.Get(1).(int64), args.Error(2)
}

// MarkReadIfUnread sets the read marker once
func (m *MockMessageRepository) MarkReadIfUnread(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

// UpdateDraft replaces the editable fields of a draft
func (m *MockMessageRepository) UpdateDraft(ctx context.Context, id string, changes repository.DraftChanges) error {
	args := m.Called(ctx, id, changes)
	return args.Error(0)
}

// MarkSent clears the draft flag once
func (m *MockMessageRepository) MarkSent(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// Delete deletes a message by its ID
func (m *MockMessageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// CountUnread counts unread letters for a recipient
func (m *MockMessageRepository) CountUnread(ctx context.Context, recipient string) (int64, error) {
	args := m.Called(ctx, recipient)
	return args.Get(0).(int64), args.Error(1)
}

var _ repository.MessageRepository = (*MockMessageRepository)(nil)
