package service

import (
	"context"
	"errors"
	"time"

	"troop-backend/internal/domain"
	"troop-backend/internal/repository"
)

const defaultNotificationLimit = 50

type notificationService struct {
	noteRepo repository.NotificationRepository
	userRepo repository.UserRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository, userRepo repository.UserRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo, userRepo: userRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, userKey string, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	return s.noteRepo.ListForUser(ctx, domain.NormalizeEmail(userKey), limit)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userKey, notificationID string) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, domain.NormalizeEmail(userKey))
}

func (s *notificationService) Notify(ctx context.Context, userKey, title, message, link string) error {
	return s.noteRepo.Create(ctx, &domain.Notification{
		UserKey:   domain.NormalizeEmail(userKey),
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	})
}

// NotifyReviewers writes one notification per approved admin or approver.
func (s *notificationService) NotifyReviewers(ctx context.Context, title, message, link string) error {
	seen := map[string]bool{}
	var errs []error
	for _, role := range []string{domain.RoleAdmin, domain.RoleApprover} {
		users, err := s.userRepo.ListByRole(ctx, role)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, u := range users {
			email := domain.NormalizeEmail(u.Email)
			if email == "" || seen[email] || !u.IsApproved() {
				continue
			}
			seen[email] = true
			if err := s.Notify(ctx, email, title, message, link); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
