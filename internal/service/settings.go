package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"troop-backend/internal/domain"
	"troop-backend/internal/repository"
)

type settingsService struct {
	repo repository.SettingsRepository
}

func NewSettingsService(repo repository.SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

// GetSettings returns the stored settings, or the defaults before the first save.
func (s *settingsService) GetSettings(ctx context.Context) (*domain.TroopSettings, error) {
	st, err := s.repo.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultTroopSettings(), nil
	}
	if err != nil {
		return nil, err
	}
	if st.PendingReminderDays <= 0 {
		st.PendingReminderDays = domain.DefaultPendingReminderDays
	}
	if st.TroopName == "" {
		st.TroopName = domain.DefaultTroopSettings().TroopName
	}
	return st, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, st *domain.TroopSettings, updatedBy string) (*domain.TroopSettings, error) {
	st.TroopName = strings.TrimSpace(st.TroopName)
	if st.TroopName == "" {
		return nil, fmt.Errorf("%w: troop name is required", ErrInvalidSettings)
	}
	if st.ReplyTo != "" {
		if _, err := mail.ParseAddress(st.ReplyTo); err != nil {
			return nil, fmt.Errorf("%w: reply-to address: %v", ErrInvalidSettings, err)
		}
	}
	if st.PendingReminderDays < 1 {
		return nil, fmt.Errorf("%w: pending reminder days must be at least 1", ErrInvalidSettings)
	}
	st.UpdatedAt = time.Now().UTC()
	st.UpdatedBy = updatedBy
	if err := s.repo.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return st, nil
}
