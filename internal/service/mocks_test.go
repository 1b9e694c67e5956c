package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
	"troop-backend/internal/webhook"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Get(ctx context.Context, key string) (*domain.UserProfile, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}
func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}
func (m *MockUserRepo) List(ctx context.Context) ([]domain.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserProfile), args.Error(1)
}
func (m *MockUserRepo) ListByRole(ctx context.Context, role string) ([]domain.UserProfile, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserProfile), args.Error(1)
}
func (m *MockUserRepo) Save(ctx context.Context, p *domain.UserProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockUserRepo) UpsertApproved(ctx context.Context, p *domain.UserProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockUserRepo) Promote(ctx context.Context, legacyKey, uid string) (*domain.UserProfile, error) {
	args := m.Called(ctx, legacyKey, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}
func (m *MockUserRepo) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockRequestRepo
type MockRequestRepo struct {
	mock.Mock
}

func (m *MockRequestRepo) Create(ctx context.Context, req *domain.RegistrationRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockRequestRepo) GetByID(ctx context.Context, id string) (*domain.RegistrationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy so the service cannot mutate the fixture.
	req := *args.Get(0).(*domain.RegistrationRequest)
	return &req, args.Error(1)
}
func (m *MockRequestRepo) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.RegistrationRequest, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RegistrationRequest), args.Error(1)
}
func (m *MockRequestRepo) Update(ctx context.Context, req *domain.RegistrationRequest, from domain.RequestStatus) error {
	args := m.Called(ctx, req, from)
	return args.Error(0)
}
func (m *MockRequestRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockContactRepo
type MockContactRepo struct {
	mock.Mock
}

func (m *MockContactRepo) List(ctx context.Context) ([]domain.Contact, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Contact), args.Error(1)
}
func (m *MockContactRepo) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}
func (m *MockContactRepo) FindByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}
func (m *MockContactRepo) Save(ctx context.Context, c *domain.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockContactRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) ListForUser(ctx context.Context, userKey string, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, userKey, limit)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userKey string) error {
	args := m.Called(ctx, id, userKey)
	return args.Error(0)
}

// MockSettingsRepo
type MockSettingsRepo struct {
	mock.Mock
}

func (m *MockSettingsRepo) Get(ctx context.Context) (*domain.TroopSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TroopSettings), args.Error(1)
}
func (m *MockSettingsRepo) Save(ctx context.Context, s *domain.TroopSettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

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

// MockEmailQueueService
type MockEmailQueueService struct {
	mock.Mock
}

func (m *MockEmailQueueService) QueueApprovalEmails(ctx context.Context, req *domain.RegistrationRequest) (*domain.EmailQueueResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailQueueResult), args.Error(1)
}
func (m *MockEmailQueueService) QueueRejectionEmails(ctx context.Context, req *domain.RegistrationRequest, reason string) (*domain.EmailQueueResult, error) {
	args := m.Called(ctx, req, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailQueueResult), args.Error(1)
}
func (m *MockEmailQueueService) QueuePendingDigest(ctx context.Context, pending []domain.RegistrationRequest, reviewers []domain.UserProfile) (*domain.EmailQueueResult, error) {
	args := m.Called(ctx, pending, reviewers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailQueueResult), args.Error(1)
}

// MockNotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) GetNotifications(ctx context.Context, userKey string, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, userKey, limit)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *MockNotificationService) MarkAsRead(ctx context.Context, userKey, id string) error {
	args := m.Called(ctx, userKey, id)
	return args.Error(0)
}
func (m *MockNotificationService) Notify(ctx context.Context, userKey, title, message, link string) error {
	args := m.Called(ctx, userKey, title, message, link)
	return args.Error(0)
}
func (m *MockNotificationService) NotifyReviewers(ctx context.Context, title, message, link string) error {
	args := m.Called(ctx, title, message, link)
	return args.Error(0)
}

// MockSettingsService
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) GetSettings(ctx context.Context) (*domain.TroopSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TroopSettings), args.Error(1)
}
func (m *MockSettingsService) UpdateSettings(ctx context.Context, s *domain.TroopSettings, by string) (*domain.TroopSettings, error) {
	args := m.Called(ctx, s, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TroopSettings), args.Error(1)
}

// MockDeliverer
type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Name() string { return "mock" }
func (m *MockDeliverer) Deliver(ctx context.Context, rows []domain.EmailRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

// MockEventSource
type MockEventSource struct {
	mock.Mock
}

func (m *MockEventSource) ListEvents(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CalendarEvent), args.Error(1)
}

// MockCalendarWriter
type MockCalendarWriter struct {
	mock.Mock
}

func (m *MockCalendarWriter) Calendar(ctx context.Context, op webhook.CalendarOp) (*webhook.CalendarResponse, error) {
	args := m.Called(ctx, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.CalendarResponse), args.Error(1)
}

// MockSheetReader
type MockSheetReader struct {
	mock.Mock
}

func (m *MockSheetReader) ReadRange(ctx context.Context, rng string) ([]map[string]string, error) {
	args := m.Called(ctx, rng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]string), args.Error(1)
}
