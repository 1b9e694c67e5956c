package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"troop-backend/internal/domain"
	"troop-backend/internal/repository"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.RegistrationRequestRepository
	repository.ContactRepository
	repository.NotificationRepository
	repository.SettingsRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                            db,
		UserRepository:                NewUserRepository(db),
		RegistrationRequestRepository: NewRegistrationRequestRepository(db),
		ContactRepository:             NewContactRepository(db),
		NotificationRepository:        NewNotificationRepository(db),
		SettingsRepository:            NewSettingsRepository(db),
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// translateErr maps driver errors onto the domain store errors.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pqErr.Message)
		case "42501": // insufficient_privilege
			return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, pqErr.Message)
		}
	}
	return err
}
