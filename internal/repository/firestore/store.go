// Package firestore implements the repositories on Cloud Firestore, the
// document store behind the troop site.
package firestore

import (
	"fmt"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"troop-backend/internal/domain"
	"troop-backend/internal/repository"
)

const (
	usersCollection         = "users"
	requestsCollection      = "registrationRequests"
	contactsCollection      = "contacts"
	notificationsCollection = "notifications"
	settingsCollection      = "settings"
	settingsDocument        = "troop"
)

type Store struct {
	client *gfs.Client
	repository.UserRepository
	repository.RegistrationRequestRepository
	repository.ContactRepository
	repository.NotificationRepository
	repository.SettingsRepository
}

func NewStore(client *gfs.Client) *Store {
	return &Store{
		client:                        client,
		UserRepository:                NewUserRepository(client),
		RegistrationRequestRepository: NewRegistrationRequestRepository(client),
		ContactRepository:             NewContactRepository(client),
		NotificationRepository:        NewNotificationRepository(client),
		SettingsRepository:            NewSettingsRepository(client),
	}
}

func (s *Store) Close() error {
	return s.client.Close()
}

// translateErr maps Firestore gRPC status codes onto the domain store errors.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, err.Error())
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, err.Error())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
