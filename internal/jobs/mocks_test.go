package jobs

import (
	"context"

	"github.com/stretchr/testify/mock"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
	"troop-backend/internal/service"
)

// MockRequestRepo
type MockRequestRepo struct {
	mock.Mock
}

func (m *MockRequestRepo) Create(ctx context.Context, req *domain.RegistrationRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *MockRequestRepo) GetByID(ctx context.Context, id string) (*domain.RegistrationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistrationRequest), args.Error(1)
}
func (m *MockRequestRepo) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.RegistrationRequest, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RegistrationRequest), args.Error(1)
}
func (m *MockRequestRepo) Update(ctx context.Context, req *domain.RegistrationRequest, from domain.RequestStatus) error {
	return m.Called(ctx, req, from).Error(0)
}
func (m *MockRequestRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

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
	return m.Called(ctx, p).Error(0)
}
func (m *MockUserRepo) UpsertApproved(ctx context.Context, p *domain.UserProfile) error {
	return m.Called(ctx, p).Error(0)
}
func (m *MockUserRepo) Promote(ctx context.Context, legacyKey, uid string) (*domain.UserProfile, error) {
	args := m.Called(ctx, legacyKey, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}
func (m *MockUserRepo) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
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

// MockAuthService only backs the approval call; the other methods are unused by jobs.
type MockAuthService struct {
	mock.Mock
	service.AuthService
}

func (m *MockAuthService) ApproveRegistrationRequest(ctx context.Context, id string, approver identity.Principal) (*service.ApprovalResult, error) {
	args := m.Called(ctx, id, approver)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApprovalResult), args.Error(1)
}
