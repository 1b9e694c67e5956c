package http

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
	"troop-backend/internal/service"
	"troop-backend/internal/webhook"
)

// MockIdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIDToken(ctx context.Context, token string) (*identity.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Principal), args.Error(1)
}
func (m *MockIdentityProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	args := m.Called(ctx, email, password, displayName)
	return args.String(0), args.Error(1)
}

// MockAuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SubmitRegistrationRequest(ctx context.Context, req *domain.RegistrationRequest) (*domain.RegistrationRequest, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistrationRequest), args.Error(1)
}
func (m *MockAuthService) GetPendingRequests(ctx context.Context) ([]domain.RegistrationRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RegistrationRequest), args.Error(1)
}
func (m *MockAuthService) GetRegistrationRequest(ctx context.Context, id string) (*domain.RegistrationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistrationRequest), args.Error(1)
}
func (m *MockAuthService) ApproveRegistrationRequest(ctx context.Context, id string, approver identity.Principal) (*service.ApprovalResult, error) {
	args := m.Called(ctx, id, approver)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApprovalResult), args.Error(1)
}
func (m *MockAuthService) RejectRegistrationRequest(ctx context.Context, id string, approver identity.Principal, reason string) (*domain.RegistrationRequest, *domain.EmailQueueResult, error) {
	args := m.Called(ctx, id, approver, reason)
	var req *domain.RegistrationRequest
	if args.Get(0) != nil {
		req = args.Get(0).(*domain.RegistrationRequest)
	}
	var emails *domain.EmailQueueResult
	if args.Get(1) != nil {
		emails = args.Get(1).(*domain.EmailQueueResult)
	}
	return req, emails, args.Error(2)
}
func (m *MockAuthService) RequireApprovedProfile(ctx context.Context, principal identity.Principal) (*domain.UserProfile, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}
func (m *MockAuthService) CreateUserWithRoles(ctx context.Context, email, password string, profile *domain.UserProfile) (*domain.UserProfile, error) {
	args := m.Called(ctx, email, password, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}
func (m *MockAuthService) GetAllUsers(ctx context.Context, fallback []domain.UserProfile) ([]domain.UserProfile, error) {
	args := m.Called(ctx, fallback)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserProfile), args.Error(1)
}
func (m *MockAuthService) GetUserProfile(ctx context.Context, key string) (*domain.UserProfile, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}
func (m *MockAuthService) UpdateUserProfile(ctx context.Context, key string, patch domain.ProfilePatch) (*domain.UserProfile, error) {
	args := m.Called(ctx, key, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}
func (m *MockAuthService) SetAccessStatus(ctx context.Context, key string, status domain.AccessStatus) (*domain.UserProfile, error) {
	args := m.Called(ctx, key, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

// MockCalendarService
type MockCalendarService struct {
	mock.Mock
}

func (m *MockCalendarService) EventsForYear(ctx context.Context, year int) ([]domain.CalendarEvent, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CalendarEvent), args.Error(1)
}
func (m *MockCalendarService) MonthGrid(ctx context.Context, year int, month time.Month) (*domain.MonthGrid, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MonthGrid), args.Error(1)
}
func (m *MockCalendarService) ExportICS(ctx context.Context, year int) (string, error) {
	args := m.Called(ctx, year)
	return args.String(0), args.Error(1)
}
func (m *MockCalendarService) Apply(ctx context.Context, op webhook.CalendarOp) (*webhook.CalendarResponse, error) {
	args := m.Called(ctx, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.CalendarResponse), args.Error(1)
}

// MockNotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) GetNotifications(ctx context.Context, userKey string, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, userKey, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *MockNotificationService) MarkAsRead(ctx context.Context, userKey, id string) error {
	return m.Called(ctx, userKey, id).Error(0)
}
func (m *MockNotificationService) Notify(ctx context.Context, userKey, title, message, link string) error {
	return m.Called(ctx, userKey, title, message, link).Error(0)
}
func (m *MockNotificationService) NotifyReviewers(ctx context.Context, title, message, link string) error {
	return m.Called(ctx, title, message, link).Error(0)
}
