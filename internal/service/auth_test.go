package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
)

var fixedNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

type authFixture struct {
	users    *MockUserRepo
	requests *MockRequestRepo
	idp      *MockIdentityProvider
	emails   *MockEmailQueueService
	notifier *MockNotificationService
	svc      *authService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:    new(MockUserRepo),
		requests: new(MockRequestRepo),
		idp:      new(MockIdentityProvider),
		emails:   new(MockEmailQueueService),
		notifier: new(MockNotificationService),
	}
	f.svc = NewAuthService(f.users, f.requests, f.idp, f.emails, f.notifier).(*authService)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func pendingRequest() *domain.RegistrationRequest {
	return &domain.RegistrationRequest{
		ID:              "req-1",
		ScoutFirstName:  "Alex",
		ScoutLastName:   "Rivera",
		ScoutEmail:      "a@b.com",
		FatherFirstName: "Sam",
		FatherLastName:  "Rivera",
		FatherEmail:     "dad@b.com",
		MotherFirstName: "Jo",
		MotherLastName:  "Rivera",
		MotherEmail:     "mom@b.com",
		IncludeFather:   false,
		IncludeMother:   true,
		Status:          domain.RequestStatusPending,
		CreatedAt:       fixedNow.Add(-48 * time.Hour),
	}
}

var reviewer = identity.Principal{UID: "uid-admin", Email: "admin@troop.org", IDToken: "tok"}

func TestAuthService_SubmitRegistrationRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture()
		req := &domain.RegistrationRequest{
			ScoutFirstName: " Alex ",
			ScoutLastName:  "Rivera",
			ScoutEmail:     " A@B.com ",
			Status:         domain.RequestStatusApproved,
		}
		f.requests.On("Create", ctx, mock.MatchedBy(func(r *domain.RegistrationRequest) bool {
			return r.ID != "" && r.Status == domain.RequestStatusPending && r.ScoutEmail == "a@b.com" && r.CreatedAt.Equal(fixedNow)
		})).Return(nil).Once()
		f.notifier.On("NotifyReviewers", ctx, "New registration request", mock.Anything, mock.Anything).Return(nil).Once()

		got, err := f.svc.SubmitRegistrationRequest(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "Alex", got.ScoutFirstName)
		assert.Equal(t, domain.RequestStatusPending, got.Status)
		f.requests.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("ReviewerNotificationFailureIgnored", func(t *testing.T) {
		f := newAuthFixture()
		f.requests.On("Create", ctx, mock.Anything).Return(nil).Once()
		f.notifier.On("NotifyReviewers", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("boom")).Once()

		_, err := f.svc.SubmitRegistrationRequest(ctx, pendingRequest())
		assert.NoError(t, err)
	})

	t.Run("Invalid", func(t *testing.T) {
		f := newAuthFixture()
		req := pendingRequest()
		req.IncludeFather = true
		req.FatherEmail = "  "

		_, err := f.svc.SubmitRegistrationRequest(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.ErrorIs(t, err, domain.ErrFatherEmailMissing)
		f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_ApproveRegistrationRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture()
		req := pendingRequest()
		approved := *req
		approved.Status = domain.RequestStatusApproved
		approved.ApprovedAt = &fixedNow
		approved.ApprovedBy = reviewer.Email

		f.requests.On("GetByID", ctx, "req-1").Return(req, nil).Once()
		f.requests.On("Update", ctx, mock.MatchedBy(func(r *domain.RegistrationRequest) bool {
			return r.Status == domain.RequestStatusApproved && r.ApprovedBy == "admin@troop.org" && r.ApprovedAt != nil
		}), domain.RequestStatusPending).Return(nil).Once()
		f.requests.On("GetByID", ctx, "req-1").Return(&approved, nil).Once()
		f.requests.On("Update", ctx, mock.MatchedBy(func(r *domain.RegistrationRequest) bool {
			return r.EmailsQueuedAt != nil && r.EmailsQueuedAt.Equal(fixedNow)
		}), domain.RequestStatusApproved).Return(nil).Once()

		f.users.On("UpsertApproved", mock.Anything, mock.Anything).Return(nil).Twice()
		f.emails.On("QueueApprovalEmails", ctx, mock.Anything).
			Return(&domain.EmailQueueResult{Delivery: "sheets", Rows: 2}, nil).Once()
		f.notifier.On("Notify", ctx, "a@b.com", mock.Anything, mock.Anything, "/").Return(nil).Once()
		f.requests.On("Delete", ctx, "req-1").Return(nil).Once()

		result, err := f.svc.ApproveRegistrationRequest(ctx, "req-1", reviewer)
		require.NoError(t, err)
		assert.NoError(t, result.EmailErr)
		assert.NoError(t, result.CleanupErr)
		assert.Equal(t, 2, result.Emails.Rows)
		assert.Len(t, result.Profiles, 2)
		f.users.AssertNumberOfCalls(t, "UpsertApproved", 2)

		scout := result.Profiles[0]
		assert.Equal(t, "a@b.com", scout.Key)
		assert.Equal(t, domain.AccessStatusApproved, scout.AccessStatus)
		assert.Equal(t, []string{domain.RoleScout}, scout.Roles)
		assert.Equal(t, []string{"mom@b.com"}, scout.ParentEmails)

		mom := result.Profiles[1]
		assert.Equal(t, "mom@b.com", mom.Key)
		assert.Equal(t, domain.RelationMother, mom.Relation)
		assert.Equal(t, []string{"a@b.com"}, mom.ChildEmails)

		for _, p := range result.Profiles {
			assert.NotEqual(t, "dad@b.com", p.Key)
		}
		f.requests.AssertExpectations(t)
		f.users.AssertExpectations(t)
		f.emails.AssertExpectations(t)
	})

	t.Run("EmailFailureStillApproves", func(t *testing.T) {
		f := newAuthFixture()
		req := pendingRequest()
		f.requests.On("GetByID", ctx, "req-1").Return(req, nil).Once()
		f.requests.On("Update", ctx, mock.Anything, domain.RequestStatusPending).Return(nil).Once()
		f.requests.On("GetByID", ctx, "req-1").Return(nil, errors.New("unavailable")).Once()
		f.users.On("UpsertApproved", mock.Anything, mock.Anything).Return(nil)
		f.emails.On("QueueApprovalEmails", ctx, mock.Anything).Return(nil, errors.New("sheets down")).Once()
		f.notifier.On("Notify", ctx, "a@b.com", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		f.requests.On("Delete", ctx, "req-1").Return(nil).Once()

		result, err := f.svc.ApproveRegistrationRequest(ctx, "req-1", reviewer)
		require.NoError(t, err)
		assert.EqualError(t, result.EmailErr, "sheets down")
		assert.Nil(t, result.Emails)
		assert.Equal(t, domain.RequestStatusApproved, result.Request.Status)
		assert.Nil(t, result.Request.EmailsQueuedAt)
		f.requests.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, domain.RequestStatusApproved)
		f.requests.AssertExpectations(t)
	})

	t.Run("CleanupFailureReported", func(t *testing.T) {
		f := newAuthFixture()
		f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil)
		f.requests.On("Update", ctx, mock.Anything, domain.RequestStatusPending).Return(nil).Once()
		f.requests.On("Update", ctx, mock.Anything, domain.RequestStatusApproved).Return(nil).Once()
		f.users.On("UpsertApproved", mock.Anything, mock.Anything).Return(nil)
		f.emails.On("QueueApprovalEmails", ctx, mock.Anything).Return(&domain.EmailQueueResult{Rows: 2}, nil)
		f.notifier.On("Notify", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.requests.On("Delete", ctx, "req-1").Return(domain.ErrPermissionDenied).Once()

		result, err := f.svc.ApproveRegistrationRequest(ctx, "req-1", reviewer)
		require.NoError(t, err)
		assert.ErrorIs(t, result.CleanupErr, domain.ErrPermissionDenied)
		require.NotNil(t, result.Request.EmailsQueuedAt)
		f.requests.AssertExpectations(t)
	})

	t.Run("ProfileWriteFailureAborts", func(t *testing.T) {
		f := newAuthFixture()
		f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil)
		f.requests.On("Update", ctx, mock.Anything, domain.RequestStatusPending).Return(nil).Once()
		f.users.On("UpsertApproved", mock.Anything, mock.Anything).Return(domain.ErrPermissionDenied)

		_, err := f.svc.ApproveRegistrationRequest(ctx, "req-1", reviewer)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
		f.emails.AssertNotCalled(t, "QueueApprovalEmails", mock.Anything, mock.Anything)
		f.requests.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("AlreadyDeleted", func(t *testing.T) {
		f := newAuthFixture()
		f.requests.On("GetByID", ctx, "req-1").Return(nil, domain.ErrNotFound).Once()

		assert.NotPanics(t, func() {
			_, err := f.svc.ApproveRegistrationRequest(ctx, "req-1", reviewer)
			assert.ErrorIs(t, err, ErrRequestNotFound)
		})
		f.users.AssertNotCalled(t, "UpsertApproved", mock.Anything, mock.Anything)
	})

	t.Run("DeletedBetweenReadAndUpdate", func(t *testing.T) {
		f := newAuthFixture()
		f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()
		f.requests.On("Update", ctx, mock.Anything, domain.RequestStatusPending).Return(domain.ErrNotFound).Once()

		_, err := f.svc.ApproveRegistrationRequest(ctx, "req-1", reviewer)
		assert.ErrorIs(t, err, ErrRequestNotFound)
	})

	t.Run("RejectedBetweenReadAndUpdate", func(t *testing.T) {
		f := newAuthFixture()
		f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()
		f.requests.On("Update", ctx, mock.Anything, domain.RequestStatusPending).
			Return(fmt.Errorf("%w: request req-1 is rejected", domain.ErrConflict)).Once()

		_, err := f.svc.ApproveRegistrationRequest(ctx, "req-1", reviewer)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		f.users.AssertNotCalled(t, "UpsertApproved", mock.Anything, mock.Anything)
		f.emails.AssertNotCalled(t, "QueueApprovalEmails", mock.Anything, mock.Anything)
		f.requests.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Rejected", func(t *testing.T) {
		f := newAuthFixture()
		req := pendingRequest()
		req.Status = domain.RequestStatusRejected
		f.requests.On("GetByID", ctx, "req-1").Return(req, nil).Once()

		_, err := f.svc.ApproveRegistrationRequest(ctx, "req-1", reviewer)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		f.requests.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AlreadyApprovedRerunsSideEffects", func(t *testing.T) {
		f := newAuthFixture()
		req := pendingRequest()
		req.Status = domain.RequestStatusApproved
		req.ApprovedAt = &fixedNow
		f.requests.On("GetByID", ctx, "req-1").Return(req, nil).Once()
		f.users.On("UpsertApproved", mock.Anything, mock.Anything).Return(nil).Twice()
		f.emails.On("QueueApprovalEmails", ctx, mock.Anything).Return(&domain.EmailQueueResult{Rows: 2}, nil).Once()
		f.requests.On("Update", ctx, mock.Anything, domain.RequestStatusApproved).Return(nil).Once()
		f.notifier.On("Notify", ctx, "a@b.com", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		f.requests.On("Delete", ctx, "req-1").Return(domain.ErrNotFound).Once()

		result, err := f.svc.ApproveRegistrationRequest(ctx, "req-1", reviewer)
		require.NoError(t, err)
		assert.NoError(t, result.CleanupErr)
		f.requests.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, domain.RequestStatusPending)
		f.users.AssertExpectations(t)
	})

	t.Run("EmailsAlreadyQueuedNotResent", func(t *testing.T) {
		f := newAuthFixture()
		req := pendingRequest()
		req.Status = domain.RequestStatusApproved
		req.ApprovedAt = &fixedNow
		queuedAt := fixedNow.Add(-time.Hour)
		req.EmailsQueuedAt = &queuedAt
		f.requests.On("GetByID", ctx, "req-1").Return(req, nil).Once()
		f.users.On("UpsertApproved", mock.Anything, mock.Anything).Return(nil).Twice()
		f.notifier.On("Notify", ctx, "a@b.com", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		f.requests.On("Delete", ctx, "req-1").Return(domain.ErrPermissionDenied).Once()

		result, err := f.svc.ApproveRegistrationRequest(ctx, "req-1", identity.SystemPrincipal)
		require.NoError(t, err)
		assert.ErrorIs(t, result.CleanupErr, domain.ErrPermissionDenied)
		assert.NoError(t, result.EmailErr)
		assert.Nil(t, result.Emails)
		f.emails.AssertNotCalled(t, "QueueApprovalEmails", mock.Anything, mock.Anything)
		f.requests.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestApprovalProfiles_MergesSharedEmail(t *testing.T) {
	req := pendingRequest()
	req.IncludeFather = true
	req.FatherEmail = "Parents@B.com"
	req.MotherEmail = "parents@b.com"

	profiles := approvalProfiles(req, fixedNow)
	require.Len(t, profiles, 2)
	assert.Equal(t, "parents@b.com", profiles[1].Key)
	assert.Equal(t, []string{"parents@b.com"}, profiles[0].ParentEmails)
	assert.Equal(t, domain.RelationMother, profiles[1].Relation)
	assert.Equal(t, []string{"a@b.com"}, profiles[1].ChildEmails)
}

func TestAuthService_RejectRegistrationRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture()
		f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()
		f.requests.On("Update", ctx, mock.MatchedBy(func(r *domain.RegistrationRequest) bool {
			return r.Status == domain.RequestStatusRejected && r.RejectionReason == "Troop is full" && r.RejectedBy == "admin@troop.org"
		}), domain.RequestStatusPending).Return(nil).Once()
		f.emails.On("QueueRejectionEmails", ctx, mock.Anything, "Troop is full").
			Return(&domain.EmailQueueResult{Delivery: "sheets", Rows: 2}, nil).Once()

		req, emails, err := f.svc.RejectRegistrationRequest(ctx, "req-1", reviewer, "  Troop is full ")
		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusRejected, req.Status)
		assert.Equal(t, 2, emails.Rows)
		f.requests.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		f.emails.AssertExpectations(t)
	})

	t.Run("EmailFailurePropagates", func(t *testing.T) {
		f := newAuthFixture()
		f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()
		f.requests.On("Update", ctx, mock.Anything, domain.RequestStatusPending).Return(nil).Once()
		f.emails.On("QueueRejectionEmails", ctx, mock.Anything, "").Return(nil, errors.New("sheets down")).Once()

		req, _, err := f.svc.RejectRegistrationRequest(ctx, "req-1", reviewer, "")
		assert.ErrorIs(t, err, ErrEmailsNotQueued)
		assert.ErrorContains(t, err, "sheets down")
		require.NotNil(t, req)
		assert.Equal(t, domain.RequestStatusRejected, req.Status)
	})

	t.Run("NotPending", func(t *testing.T) {
		f := newAuthFixture()
		req := pendingRequest()
		req.Status = domain.RequestStatusApproved
		f.requests.On("GetByID", ctx, "req-1").Return(req, nil).Once()

		_, _, err := f.svc.RejectRegistrationRequest(ctx, "req-1", reviewer, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("ApprovedBetweenReadAndUpdate", func(t *testing.T) {
		f := newAuthFixture()
		f.requests.On("GetByID", ctx, "req-1").Return(pendingRequest(), nil).Once()
		f.requests.On("Update", ctx, mock.Anything, domain.RequestStatusPending).
			Return(fmt.Errorf("%w: request req-1 is approved", domain.ErrConflict)).Once()

		req, emails, err := f.svc.RejectRegistrationRequest(ctx, "req-1", reviewer, "Full")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Nil(t, req)
		assert.Nil(t, emails)
		f.emails.AssertNotCalled(t, "QueueRejectionEmails", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newAuthFixture()
		f.requests.On("GetByID", ctx, "missing").Return(nil, domain.ErrNotFound).Once()

		_, _, err := f.svc.RejectRegistrationRequest(ctx, "missing", reviewer, "")
		assert.ErrorIs(t, err, ErrRequestNotFound)
	})
}

func TestAuthService_RequireApprovedProfile(t *testing.T) {
	ctx := context.Background()
	principal := identity.Principal{UID: "uid-1", Email: "A@B.com", EmailVerified: true}

	t.Run("ExistingUID", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("Get", ctx, "uid-1").Return(&domain.UserProfile{Key: "uid-1", AccessStatus: domain.AccessStatusApproved}, nil).Once()

		p, err := f.svc.RequireApprovedProfile(ctx, principal)
		require.NoError(t, err)
		assert.Equal(t, "uid-1", p.Key)
	})

	t.Run("PromotesLegacyProfile", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("Get", ctx, "uid-1").Return(nil, domain.ErrNotFound).Once()
		f.users.On("FindByEmail", ctx, "a@b.com").Return(&domain.UserProfile{Key: "a@b.com", AccessStatus: domain.AccessStatusApproved}, nil).Once()
		f.users.On("Promote", ctx, "a@b.com", "uid-1").Return(&domain.UserProfile{Key: "uid-1", UID: "uid-1", AccessStatus: domain.AccessStatusApproved}, nil).Once()

		p, err := f.svc.RequireApprovedProfile(ctx, principal)
		require.NoError(t, err)
		assert.Equal(t, "uid-1", p.UID)
		f.users.AssertExpectations(t)
	})

	t.Run("UnverifiedEmailNotPromoted", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("Get", ctx, "uid-1").Return(nil, domain.ErrNotFound).Once()
		unverified := principal
		unverified.EmailVerified = false

		_, err := f.svc.RequireApprovedProfile(ctx, unverified)
		assert.ErrorIs(t, err, ErrNotAuthorized)
		f.users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
		f.users.AssertNotCalled(t, "Promote", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NoProfile", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("Get", ctx, "uid-1").Return(nil, domain.ErrNotFound).Once()
		f.users.On("FindByEmail", ctx, "a@b.com").Return(nil, domain.ErrNotFound).Once()

		_, err := f.svc.RequireApprovedProfile(ctx, principal)
		assert.ErrorIs(t, err, ErrNotAuthorized)
		assert.Equal(t, "auth/not-authorized", err.Error())
	})

	t.Run("NotApproved", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("Get", ctx, "uid-1").Return(&domain.UserProfile{Key: "uid-1", AccessStatus: domain.AccessStatusRetired}, nil).Once()

		_, err := f.svc.RequireApprovedProfile(ctx, principal)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("StoreError", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("Get", ctx, "uid-1").Return(nil, domain.ErrPermissionDenied).Once()

		_, err := f.svc.RequireApprovedProfile(ctx, principal)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})
}

func TestAuthService_CreateUserWithRoles(t *testing.T) {
	ctx := context.Background()

	t.Run("NewProfile", func(t *testing.T) {
		f := newAuthFixture()
		f.idp.On("CreateUser", ctx, "leader@troop.org", "secret123", "Pat Leader").Return("uid-9", nil).Once()
		f.users.On("Get", ctx, "leader@troop.org").Return(nil, domain.ErrNotFound).Once()
		f.users.On("Save", ctx, mock.MatchedBy(func(p *domain.UserProfile) bool {
			return p.Key == "uid-9" && p.UID == "uid-9" && p.IsApproved() && p.HasRole(domain.RoleUser)
		})).Return(nil).Once()

		p, err := f.svc.CreateUserWithRoles(ctx, " Leader@Troop.org", "secret123", &domain.UserProfile{DisplayName: "Pat Leader"})
		require.NoError(t, err)
		assert.Equal(t, "leader@troop.org", p.Email)
		f.users.AssertExpectations(t)
	})

	t.Run("PromotesApprovedProfile", func(t *testing.T) {
		f := newAuthFixture()
		legacy := &domain.UserProfile{Key: "mom@b.com", Email: "mom@b.com", Roles: []string{domain.RoleParent}, AccessStatus: domain.AccessStatusApproved}
		f.idp.On("CreateUser", ctx, "mom@b.com", "pw-123456", "").Return("uid-mom", nil).Once()
		f.users.On("Get", ctx, "mom@b.com").Return(legacy, nil).Once()
		f.users.On("Promote", ctx, "mom@b.com", "uid-mom").Return(&domain.UserProfile{Key: "uid-mom", Email: "mom@b.com", Roles: []string{domain.RoleParent}, AccessStatus: domain.AccessStatusApproved}, nil).Once()
		f.users.On("Save", ctx, mock.Anything).Return(nil).Once()

		p, err := f.svc.CreateUserWithRoles(ctx, "mom@b.com", "pw-123456", &domain.UserProfile{Roles: []string{domain.RoleApprover}})
		require.NoError(t, err)
		assert.Equal(t, []string{domain.RoleParent, domain.RoleApprover}, p.Roles)
		assert.Equal(t, "uid-mom", p.Key)
	})

	t.Run("AccountExists", func(t *testing.T) {
		f := newAuthFixture()
		f.idp.On("CreateUser", ctx, "a@b.com", "pw", "").Return("", identity.ErrEmailExists).Once()

		_, err := f.svc.CreateUserWithRoles(ctx, "a@b.com", "pw", &domain.UserProfile{})
		assert.ErrorIs(t, err, identity.ErrEmailExists)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.svc.CreateUserWithRoles(ctx, "a@b.com", "pw", &domain.UserProfile{AccessStatus: "banned"})
		assert.ErrorIs(t, err, ErrInvalidAccessStatus)
	})
}

func TestAuthService_GetAllUsers_PermissionFallbackIsSticky(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	fallback := []domain.UserProfile{{Key: "cached"}}

	f.users.On("List", ctx).Return(nil, domain.ErrPermissionDenied).Once()

	got, err := f.svc.GetAllUsers(ctx, fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	got, err = f.svc.GetAllUsers(ctx, fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)
	f.users.AssertNumberOfCalls(t, "List", 1)

	pending, err := f.svc.GetPendingRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	f.requests.AssertNotCalled(t, "ListByStatus", mock.Anything, mock.Anything)
}

func TestAuthService_GetPendingRequests(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.requests.On("ListByStatus", ctx, domain.RequestStatusPending).Return([]domain.RegistrationRequest{*pendingRequest()}, nil).Once()

	got, err := f.svc.GetPendingRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAuthService_SetAccessStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Approve", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("Get", ctx, "uid-1").Return(&domain.UserProfile{Key: "uid-1", AccessStatus: domain.AccessStatusPending}, nil).Once()
		f.users.On("Save", ctx, mock.MatchedBy(func(p *domain.UserProfile) bool {
			return p.IsApproved() && p.ApprovedAt != nil && p.ApprovedAt.Equal(fixedNow)
		})).Return(nil).Once()

		_, err := f.svc.SetAccessStatus(ctx, "uid-1", domain.AccessStatusApproved)
		assert.NoError(t, err)
		f.users.AssertExpectations(t)
	})

	t.Run("Invalid", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.svc.SetAccessStatus(ctx, "uid-1", "banned")
		assert.ErrorIs(t, err, ErrInvalidAccessStatus)
	})
}

func TestAuthService_UpdateUserProfile(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	name := "  Lexi "
	f.users.On("Get", ctx, "uid-1").Return(&domain.UserProfile{Key: "uid-1", PreferredName: "Alex"}, nil).Once()
	f.users.On("Save", ctx, mock.MatchedBy(func(p *domain.UserProfile) bool {
		return p.PreferredName == "Lexi"
	})).Return(nil).Once()

	p, err := f.svc.UpdateUserProfile(ctx, "uid-1", domain.ProfilePatch{PreferredName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Lexi", p.PreferredName)
}
