package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
	"troop-backend/internal/logger"
	"troop-backend/internal/metrics"
	"troop-backend/internal/repository"
)

const scoutingStatusRegistered = "registered"

type authService struct {
	users    repository.UserRepository
	requests repository.RegistrationRequestRepository
	idp      identity.Provider
	emails   EmailQueueService
	notifier NotificationService
	now      func() time.Time

	// storeAccessible goes false after the first permission failure on a list
	// read and stays false; later list reads return their fallback directly.
	storeAccessible atomic.Bool
}

func NewAuthService(
	users repository.UserRepository,
	requests repository.RegistrationRequestRepository,
	idp identity.Provider,
	emails EmailQueueService,
	notifier NotificationService,
) AuthService {
	s := &authService{
		users:    users,
		requests: requests,
		idp:      idp,
		emails:   emails,
		notifier: notifier,
		now:      time.Now,
	}
	s.storeAccessible.Store(true)
	return s
}

func (s *authService) markStoreInaccessible(op string, err error) {
	if s.storeAccessible.CompareAndSwap(true, false) {
		metrics.StoreDegraded.Set(1)
		logger.Warn("Store refused a list read, serving fallbacks from now on", "operation", op, "error", err)
	}
}

func (s *authService) SubmitRegistrationRequest(ctx context.Context, req *domain.RegistrationRequest) (*domain.RegistrationRequest, error) {
	logger.EnterMethod("authService.SubmitRegistrationRequest", "scoutEmail", req.ScoutEmail)

	req.Normalize()
	if err := req.Validate(); err != nil {
		logger.ExitMethodWithError("authService.SubmitRegistrationRequest", err, "reason", "validation")
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	now := s.now().UTC()
	req.ID = uuid.New().String()
	req.Status = domain.RequestStatusPending
	req.CreatedAt = now
	req.UpdatedAt = now
	req.RejectionReason = ""
	req.ApprovedAt, req.ApprovedBy = nil, ""
	req.RejectedAt, req.RejectedBy = nil, ""

	if err := s.requests.Create(ctx, req); err != nil {
		logger.ExitMethodWithError("authService.SubmitRegistrationRequest", err, "requestID", req.ID)
		return nil, fmt.Errorf("failed to save registration request: %w", err)
	}
	metrics.RegistrationsSubmitted.Inc()

	title := "New registration request"
	message := fmt.Sprintf("%s (%s) is waiting for review.", req.ScoutDisplayName(), req.ScoutEmail)
	if err := s.notifier.NotifyReviewers(ctx, title, message, "/registrations/"+req.ID); err != nil {
		metrics.SideEffectFailures.WithLabelValues("reviewer_notification").Inc()
		logger.Error("Failed to notify reviewers", "requestID", req.ID, "error", err)
	}

	logger.ExitMethod("authService.SubmitRegistrationRequest", "requestID", req.ID)
	return req, nil
}

func (s *authService) GetPendingRequests(ctx context.Context) ([]domain.RegistrationRequest, error) {
	if !s.storeAccessible.Load() {
		return []domain.RegistrationRequest{}, nil
	}
	reqs, err := s.requests.ListByStatus(ctx, domain.RequestStatusPending)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			s.markStoreInaccessible("GetPendingRequests", err)
			return []domain.RegistrationRequest{}, nil
		}
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return reqs, nil
}

func (s *authService) GetRegistrationRequest(ctx context.Context, id string) (*domain.RegistrationRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

func reviewerName(p identity.Principal) string {
	if p.Email != "" {
		return p.Email
	}
	return p.UID
}

func (s *authService) ApproveRegistrationRequest(ctx context.Context, requestID string, approver identity.Principal) (*ApprovalResult, error) {
	logger.EnterMethod("authService.ApproveRegistrationRequest", "requestID", requestID, "approver", approver.UID)

	req, err := s.GetRegistrationRequest(ctx, requestID)
	if err != nil {
		logger.ExitMethodWithError("authService.ApproveRegistrationRequest", err, "requestID", requestID)
		return nil, err
	}

	switch req.Status {
	case domain.RequestStatusRejected:
		return nil, ErrInvalidTransition
	case domain.RequestStatusApproved:
		// A previous approval stopped before cleanup; finish its side effects.
		logger.Info("Re-running approval side effects", "requestID", requestID, "approvedBy", req.ApprovedBy)
	default:
		now := s.now().UTC()
		req.Status = domain.RequestStatusApproved
		req.ApprovedAt = &now
		req.ApprovedBy = reviewerName(approver)
		req.UpdatedAt = now
		if err := s.requests.Update(ctx, req, domain.RequestStatusPending); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ErrRequestNotFound
			}
			logger.ExitMethodWithError("authService.ApproveRegistrationRequest", err, "requestID", requestID)
			if errors.Is(err, domain.ErrConflict) {
				// Another reviewer decided the request first.
				return nil, ErrInvalidTransition
			}
			return nil, fmt.Errorf("failed to update request status: %w", err)
		}
		metrics.RegistrationDecisions.WithLabelValues("approved").Inc()

		if fresh, err := s.requests.GetByID(ctx, requestID); err == nil {
			req = fresh
		} else {
			logger.Warn("Approved request could not be read back, using local copy", "requestID", requestID, "error", err)
		}
	}

	result, err := s.completeApproval(ctx, req)
	if err != nil {
		logger.ExitMethodWithError("authService.ApproveRegistrationRequest", err, "requestID", requestID)
		return nil, err
	}
	logger.ExitMethod("authService.ApproveRegistrationRequest", "requestID", requestID, "profiles", len(result.Profiles))
	return result, nil
}

// completeApproval runs the post-approval steps: profile upserts, which must
// succeed, then the email queue and request cleanup, which are best effort.
func (s *authService) completeApproval(ctx context.Context, req *domain.RegistrationRequest) (*ApprovalResult, error) {
	at := s.now().UTC()
	if req.ApprovedAt != nil {
		at = *req.ApprovedAt
	}
	profiles := approvalProfiles(req, at)

	g, gctx := errgroup.WithContext(ctx)
	for i := range profiles {
		p := &profiles[i]
		g.Go(func() error {
			if err := s.users.UpsertApproved(gctx, p); err != nil {
				return fmt.Errorf("upsert profile %s: %w", p.Key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to write approved profiles for request %s: %w", req.ID, err)
	}

	result := &ApprovalResult{Request: req, Profiles: profiles}

	if req.EmailsQueuedAt != nil {
		logger.Info("Approval emails already queued, not resending", "requestID", req.ID, "queuedAt", *req.EmailsQueuedAt)
	} else if emails, err := s.emails.QueueApprovalEmails(ctx, req); err != nil {
		result.EmailErr = err
		metrics.SideEffectFailures.WithLabelValues("approval_email").Inc()
		logger.Error("Failed to queue approval emails", "requestID", req.ID, "error", err)
	} else {
		result.Emails = emails
		s.markEmailsQueued(ctx, req)
	}

	if err := s.notifier.Notify(ctx, domain.NormalizeEmail(req.ScoutEmail), "Welcome to the troop",
		"Your registration has been approved. Sign in with this email address to get started.", "/"); err != nil {
		metrics.SideEffectFailures.WithLabelValues("scout_notification").Inc()
		logger.Error("Failed to notify scout", "requestID", req.ID, "error", err)
	}

	if err := s.requests.Delete(ctx, req.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		result.CleanupErr = err
		metrics.SideEffectFailures.WithLabelValues("request_cleanup").Inc()
		logger.Error("Failed to delete approved request", "requestID", req.ID, "error", err)
	}
	return result, nil
}

// markEmailsQueued records the queued emails on the request so a later retry
// of the cleanup does not send them again.
func (s *authService) markEmailsQueued(ctx context.Context, req *domain.RegistrationRequest) {
	queuedAt := s.now().UTC()
	req.EmailsQueuedAt = &queuedAt
	if err := s.requests.Update(ctx, req, domain.RequestStatusApproved); err != nil {
		logger.Warn("Failed to record queued approval emails", "requestID", req.ID, "error", err)
	}
}

// approvalProfiles builds the scout profile and one profile per included
// guardian, cross-linked by email. Profiles that share an email are merged.
func approvalProfiles(req *domain.RegistrationRequest, at time.Time) []domain.UserProfile {
	scoutEmail := domain.NormalizeEmail(req.ScoutEmail)
	guardians := req.Guardians()

	parentEmails := make([]string, 0, len(guardians))
	for _, g := range guardians {
		if !slices.Contains(parentEmails, g.Email) {
			parentEmails = append(parentEmails, g.Email)
		}
	}

	approvedAt := at
	candidates := []domain.UserProfile{{
		Key:            scoutEmail,
		Email:          scoutEmail,
		DisplayName:    req.ScoutDisplayName(),
		Roles:          []string{domain.RoleScout},
		AccessStatus:   domain.AccessStatusApproved,
		ScoutingStatus: scoutingStatusRegistered,
		FamilyRole:     domain.FamilyRoleScout,
		ParentEmails:   parentEmails,
		FirstName:      req.ScoutFirstName,
		LastName:       req.ScoutLastName,
		PreferredName:  req.ScoutPreferredName,
		Phone:          req.ScoutPhone,
		Address:        req.Address,
		DateOfBirth:    req.ScoutDOB,
		ApprovedAt:     &approvedAt,
		ApprovedBy:     req.ApprovedBy,
		CreatedAt:      at,
		UpdatedAt:      at,
	}}
	for _, g := range guardians {
		candidates = append(candidates, domain.UserProfile{
			Key:          g.Email,
			Email:        g.Email,
			DisplayName:  g.FullName(),
			Roles:        []string{domain.RoleParent},
			AccessStatus: domain.AccessStatusApproved,
			FamilyRole:   domain.FamilyRoleParent,
			Relation:     g.Relation,
			ChildEmails:  []string{scoutEmail},
			FirstName:    g.FirstName,
			LastName:     g.LastName,
			Phone:        g.Phone,
			Address:      req.Address,
			ApprovedAt:   &approvedAt,
			ApprovedBy:   req.ApprovedBy,
			CreatedAt:    at,
			UpdatedAt:    at,
		})
	}

	out := make([]domain.UserProfile, 0, len(candidates))
	index := map[string]int{}
	for _, p := range candidates {
		if i, ok := index[p.Key]; ok {
			out[i].MergeApproved(&p)
			continue
		}
		index[p.Key] = len(out)
		out = append(out, p)
	}
	return out
}

func (s *authService) RejectRegistrationRequest(ctx context.Context, requestID string, approver identity.Principal, reason string) (*domain.RegistrationRequest, *domain.EmailQueueResult, error) {
	logger.EnterMethod("authService.RejectRegistrationRequest", "requestID", requestID, "approver", approver.UID)

	req, err := s.GetRegistrationRequest(ctx, requestID)
	if err != nil {
		logger.ExitMethodWithError("authService.RejectRegistrationRequest", err, "requestID", requestID)
		return nil, nil, err
	}
	if !req.CanTransition(domain.RequestStatusRejected) {
		return nil, nil, ErrInvalidTransition
	}

	now := s.now().UTC()
	req.Status = domain.RequestStatusRejected
	req.RejectedAt = &now
	req.RejectedBy = reviewerName(approver)
	req.RejectionReason = strings.TrimSpace(reason)
	req.UpdatedAt = now
	if err := s.requests.Update(ctx, req, domain.RequestStatusPending); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, ErrRequestNotFound
		}
		if errors.Is(err, domain.ErrConflict) {
			logger.ExitMethodWithError("authService.RejectRegistrationRequest", err, "requestID", requestID)
			return nil, nil, ErrInvalidTransition
		}
		return nil, nil, fmt.Errorf("failed to update request status: %w", err)
	}
	metrics.RegistrationDecisions.WithLabelValues("rejected").Inc()

	// Unlike approval, a rejection whose emails cannot be queued is reported.
	emails, err := s.emails.QueueRejectionEmails(ctx, req, req.RejectionReason)
	if err != nil {
		logger.ExitMethodWithError("authService.RejectRegistrationRequest", err, "requestID", requestID)
		return req, nil, fmt.Errorf("%w: %w", ErrEmailsNotQueued, err)
	}

	logger.ExitMethod("authService.RejectRegistrationRequest", "requestID", requestID)
	return req, emails, nil
}

func (s *authService) RequireApprovedProfile(ctx context.Context, principal identity.Principal) (*domain.UserProfile, error) {
	profile, err := s.users.Get(ctx, principal.UID)
	if errors.Is(err, domain.ErrNotFound) {
		profile, err = s.promoteLegacyProfile(ctx, principal)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNotAuthorized
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !profile.IsApproved() {
		logger.Info("Sign-in refused for unapproved profile", "uid", principal.UID, "accessStatus", profile.AccessStatus)
		return nil, ErrNotAuthorized
	}
	return profile, nil
}

// promoteLegacyProfile moves an email-keyed profile written at approval time to
// the caller's UID on first sign-in. Only provider-verified addresses match.
func (s *authService) promoteLegacyProfile(ctx context.Context, principal identity.Principal) (*domain.UserProfile, error) {
	email := domain.NormalizeEmail(principal.Email)
	if email == "" {
		return nil, domain.ErrNotFound
	}
	if !principal.EmailVerified {
		logger.Warn("Legacy profile not promoted for unverified email", "uid", principal.UID, "email", email)
		return nil, domain.ErrNotFound
	}
	legacy, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if legacy.Key == principal.UID {
		return legacy, nil
	}
	promoted, err := s.users.Promote(ctx, legacy.Key, principal.UID)
	if err != nil {
		return nil, err
	}
	logger.Info("Promoted legacy profile", "from", legacy.Key, "uid", principal.UID)
	return promoted, nil
}

func (s *authService) CreateUserWithRoles(ctx context.Context, email, password string, profile *domain.UserProfile) (*domain.UserProfile, error) {
	logger.EnterMethod("authService.CreateUserWithRoles", "email", email)

	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	if profile.AccessStatus != "" && !profile.AccessStatus.Valid() {
		return nil, ErrInvalidAccessStatus
	}

	uid, err := s.idp.CreateUser(ctx, email, password, profile.DisplayName)
	if err != nil {
		logger.ExitMethodWithError("authService.CreateUserWithRoles", err, "email", email)
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	now := s.now().UTC()
	p := *profile
	if legacy, err := s.users.Get(ctx, email); err == nil {
		// An approval already wrote this person's profile; keep it and add the roles.
		promoted, err := s.users.Promote(ctx, legacy.Key, uid)
		if err != nil {
			return nil, fmt.Errorf("failed to promote existing profile: %w", err)
		}
		promoted.Roles = append(promoted.Roles, profile.Roles...)
		domain.ProfilePatch{Roles: &promoted.Roles}.Apply(promoted)
		if profile.AccessStatus != "" {
			promoted.AccessStatus = profile.AccessStatus
		}
		p = *promoted
	} else {
		p.CreatedAt = now
		if p.AccessStatus == "" {
			p.AccessStatus = domain.AccessStatusApproved
		}
		if len(p.Roles) == 0 {
			p.Roles = []string{domain.RoleUser}
		}
	}
	p.Key = uid
	p.UID = uid
	p.Email = email
	p.UpdatedAt = now

	if err := s.users.Save(ctx, &p); err != nil {
		logger.ExitMethodWithError("authService.CreateUserWithRoles", err, "uid", uid)
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	logger.ExitMethod("authService.CreateUserWithRoles", "uid", uid)
	return &p, nil
}

func (s *authService) GetAllUsers(ctx context.Context, fallback []domain.UserProfile) ([]domain.UserProfile, error) {
	if !s.storeAccessible.Load() {
		return fallback, nil
	}
	users, err := s.users.List(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			s.markStoreInaccessible("GetAllUsers", err)
			return fallback, nil
		}
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *authService) GetUserProfile(ctx context.Context, key string) (*domain.UserProfile, error) {
	return s.users.Get(ctx, key)
}

func (s *authService) UpdateUserProfile(ctx context.Context, key string, patch domain.ProfilePatch) (*domain.UserProfile, error) {
	if patch.AccessStatus != nil && !patch.AccessStatus.Valid() {
		return nil, ErrInvalidAccessStatus
	}
	p, err := s.users.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	p.UpdatedAt = s.now().UTC()
	if err := s.users.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return p, nil
}

func (s *authService) SetAccessStatus(ctx context.Context, key string, status domain.AccessStatus) (*domain.UserProfile, error) {
	if !status.Valid() {
		return nil, ErrInvalidAccessStatus
	}
	p, err := s.users.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p.AccessStatus = status
	if status == domain.AccessStatusApproved && p.ApprovedAt == nil {
		p.ApprovedAt = &now
	}
	p.UpdatedAt = now
	if err := s.users.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	logger.Info("Access status changed", "key", key, "status", status)
	return p, nil
}
