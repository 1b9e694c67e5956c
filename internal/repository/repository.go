package repository

import (
	"context"

	"troop-backend/internal/domain"
)

// Every implementation returns domain.ErrNotFound for missing documents and
// domain.ErrPermissionDenied when the backend refuses access.

type UserRepository interface {
	Get(ctx context.Context, key string) (*domain.UserProfile, error)
	// FindByEmail matches the stored email field, independent of the document key.
	FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
	List(ctx context.Context) ([]domain.UserProfile, error)
	ListByRole(ctx context.Context, role string) ([]domain.UserProfile, error)
	Save(ctx context.Context, profile *domain.UserProfile) error
	// UpsertApproved creates profile.Key or merges into it with UserProfile.MergeApproved.
	UpsertApproved(ctx context.Context, profile *domain.UserProfile) error
	// Promote moves the document at legacyKey to uid in one step and returns it.
	Promote(ctx context.Context, legacyKey, uid string) (*domain.UserProfile, error)
	Delete(ctx context.Context, key string) error
}

type RegistrationRequestRepository interface {
	Create(ctx context.Context, req *domain.RegistrationRequest) error
	GetByID(ctx context.Context, id string) (*domain.RegistrationRequest, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.RegistrationRequest, error)
	// Update writes the workflow fields only while the stored status is still
	// from. It fails with domain.ErrNotFound if the document is gone and with
	// domain.ErrConflict if the status moved on.
	Update(ctx context.Context, req *domain.RegistrationRequest, from domain.RequestStatus) error
	Delete(ctx context.Context, id string) error
}

type ContactRepository interface {
	List(ctx context.Context) ([]domain.Contact, error)
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	FindByEmail(ctx context.Context, email string) (*domain.Contact, error)
	Save(ctx context.Context, contact *domain.Contact) error
	Delete(ctx context.Context, id string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	ListForUser(ctx context.Context, userKey string, limit int) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, id, userKey string) error
}

type SettingsRepository interface {
	Get(ctx context.Context) (*domain.TroopSettings, error)
	Save(ctx context.Context, settings *domain.TroopSettings) error
}
