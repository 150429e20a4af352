package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/models"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/services"
)

// MockMessageService implements services.MessageService
type MockMessageService struct {
	mock.Mock
}

func viewOrNil(args mock.Arguments) (*models.MessageView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MessageView), args.Error(1)
}

func listOrNil(args mock.Arguments) (*services.MessageList, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MessageList), args.Error(1)
}

func (m *MockMessageService) Create(ctx context.Context, sender string, input services.CreateMessageInput) (*models.MessageView, error) {
	return viewOrNil(m.Called(ctx, sender, input))
}

func (m *MockMessageService) GetByID(ctx context.Context, caller, id string) (*models.MessageView, error) {
	return viewOrNil(m.Called(ctx, caller, id))
}

func (m *MockMessageService) ListInbox(ctx context.Context, caller string, page services.Page) (*services.MessageList, error) {
	return listOrNil(m.Called(ctx, caller, page))
}

func (m *MockMessageService) ListSent(ctx context.Context, caller string, page services.Page) (*services.MessageList, error) {
	return listOrNil(m.Called(ctx, caller, page))
}

func (m *MockMessageService) ListDrafts(ctx context.Context, caller string, page services.Page) (*services.MessageList, error) {
	return listOrNil(m.Called(ctx, caller, page))
}

func (m *MockMessageService) MarkRead(ctx context.Context, caller, id string) (*models.MessageView, error) {
	return viewOrNil(m.Called(ctx, caller, id))
}

func (m *MockMessageService) Unlock(ctx context.Context, caller, id, code string) (*models.MessageView, error) {
	return viewOrNil(m.Called(ctx, caller, id, code))
}

func (m *MockMessageService) Delete(ctx context.Context, caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockMessageService) UpdateDraft(ctx context.Context, caller, id string, input services.UpdateDraftInput) (*models.MessageView, error) {
	return viewOrNil(m.Called(ctx, caller, id, input))
}

func (m *MockMessageService) SendDraft(ctx context.Context, caller, id string) (*models.MessageView, error) {
	return viewOrNil(m.Called(ctx, caller, id))
}

func (m *MockMessageService) UnreadCount(ctx context.Context, caller string) (int64, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuthService implements services.AuthService
type MockAuthService struct {
	mock.Mock
}

func userOrNil(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, input services.LoginInput) (*services.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	return userOrNil(m.Called(ctx, username, password))
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	return userOrNil(m.Called(ctx, token))
}

func (m *MockAuthService) Me(ctx context.Context, username string) (*models.User, error) {
	return userOrNil(m.Called(ctx, username))
}

// MockUserService implements services.UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) ListOthers(ctx context.Context, caller string) ([]models.User, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) Exists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

// MockNotifier implements services.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyNewMessage(recipient string, msg *models.Message) {
	m.Called(recipient, msg)
}

func (m *MockNotifier) NotifyMessageRead(sender string, msg *models.Message) {
	m.Called(sender, msg)
}

var (
	_ services.MessageService = (*MockMessageService)(nil)
	_ services.AuthService    = (*MockAuthService)(nil)
	_ services.UserService    = (*MockUserService)(nil)
	_ services.Notifier       = (*MockNotifier)(nil)
)
