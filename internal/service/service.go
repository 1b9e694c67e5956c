package service

import (
	"context"
	"errors"
	"time"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
	"troop-backend/internal/webhook"
)

var (
	ErrRequestNotFound     = errors.New("registration request not found")
	ErrInvalidTransition   = errors.New("registration request is no longer pending")
	ErrInvalidRequest      = errors.New("invalid registration request")
	ErrNotAuthorized       = errors.New("auth/not-authorized")
	ErrInvalidAccessStatus = errors.New("invalid access status")
	ErrInvalidSettings     = errors.New("invalid settings")

	// ErrEmailsNotQueued accompanies a committed rejection whose emails failed.
	ErrEmailsNotQueued = errors.New("request rejected but emails were not queued")
)

// EmailDeliverer hands a batch of rows to one delivery path. Acceptance is the
// only outcome it reports.
type EmailDeliverer interface {
	Name() string
	Deliver(ctx context.Context, rows []domain.EmailRow) error
}

type EventSource interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error)
}

type CalendarWriter interface {
	Calendar(ctx context.Context, op webhook.CalendarOp) (*webhook.CalendarResponse, error)
}

type SheetReader interface {
	ReadRange(ctx context.Context, rng string) ([]map[string]string, error)
}

// ApprovalResult reports the committed approval together with the outcome of
// each best-effort side effect. A nil EmailErr and CleanupErr mean every side
// effect went through.
type ApprovalResult struct {
	Request    *domain.RegistrationRequest `json:"request"`
	Profiles   []domain.UserProfile        `json:"profiles"`
	Emails     *domain.EmailQueueResult    `json:"emails,omitempty"`
	EmailErr   error                       `json:"-"`
	CleanupErr error                       `json:"-"`
}

type AuthService interface {
	SubmitRegistrationRequest(ctx context.Context, req *domain.RegistrationRequest) (*domain.RegistrationRequest, error)
	GetPendingRequests(ctx context.Context) ([]domain.RegistrationRequest, error)
	GetRegistrationRequest(ctx context.Context, id string) (*domain.RegistrationRequest, error)
	ApproveRegistrationRequest(ctx context.Context, requestID string, approver identity.Principal) (*ApprovalResult, error)
	RejectRegistrationRequest(ctx context.Context, requestID string, approver identity.Principal, reason string) (*domain.RegistrationRequest, *domain.EmailQueueResult, error)
	RequireApprovedProfile(ctx context.Context, principal identity.Principal) (*domain.UserProfile, error)
	CreateUserWithRoles(ctx context.Context, email, password string, profile *domain.UserProfile) (*domain.UserProfile, error)
	GetAllUsers(ctx context.Context, fallback []domain.UserProfile) ([]domain.UserProfile, error)
	GetUserProfile(ctx context.Context, key string) (*domain.UserProfile, error)
	UpdateUserProfile(ctx context.Context, key string, patch domain.ProfilePatch) (*domain.UserProfile, error)
	SetAccessStatus(ctx context.Context, key string, status domain.AccessStatus) (*domain.UserProfile, error)
}

type EmailQueueService interface {
	QueueApprovalEmails(ctx context.Context, req *domain.RegistrationRequest) (*domain.EmailQueueResult, error)
	QueueRejectionEmails(ctx context.Context, req *domain.RegistrationRequest, reason string) (*domain.EmailQueueResult, error)
	QueuePendingDigest(ctx context.Context, pending []domain.RegistrationRequest, reviewers []domain.UserProfile) (*domain.EmailQueueResult, error)
}

type CalendarService interface {
	EventsForYear(ctx context.Context, year int) ([]domain.CalendarEvent, error)
	MonthGrid(ctx context.Context, year int, month time.Month) (*domain.MonthGrid, error)
	ExportICS(ctx context.Context, year int) (string, error)
	Apply(ctx context.Context, op webhook.CalendarOp) (*webhook.CalendarResponse, error)
}

type ContactService interface {
	ListContacts(ctx context.Context) ([]domain.Contact, error)
	GetContact(ctx context.Context, id string) (*domain.Contact, error)
	SaveContact(ctx context.Context, c *domain.Contact) (*domain.Contact, error)
	DeleteContact(ctx context.Context, id string) error
	ImportContactsFromSheet(ctx context.Context) (*ImportResult, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userKey string, limit int) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, userKey, notificationID string) error
	Notify(ctx context.Context, userKey, title, message, link string) error
	NotifyReviewers(ctx context.Context, title, message, link string) error
}

type SettingsService interface {
	GetSettings(ctx context.Context) (*domain.TroopSettings, error)
	UpdateSettings(ctx context.Context, settings *domain.TroopSettings, updatedBy string) (*domain.TroopSettings, error)
}
