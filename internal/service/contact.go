package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"troop-backend/internal/domain"
	"troop-backend/internal/logger"
	"troop-backend/internal/repository"
)

// ImportResult counts what a sheet import did. Rows without a name or email
// are skipped since they cannot be matched on a later import.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type contactService struct {
	repo        repository.ContactRepository
	sheets      SheetReader
	sheetsRange string
}

func NewContactService(repo repository.ContactRepository, sheets SheetReader, sheetsRange string) ContactService {
	return &contactService{repo: repo, sheets: sheets, sheetsRange: sheetsRange}
}

func (s *contactService) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	return s.repo.List(ctx)
}

func (s *contactService) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *contactService) SaveContact(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = domain.NormalizeEmail(c.Email)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}
	return c, nil
}

func (s *contactService) DeleteContact(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// column finds a value by header name, ignoring case.
func column(row map[string]string, name string) string {
	for k, v := range row {
		if strings.EqualFold(strings.TrimSpace(k), name) {
			return v
		}
	}
	return ""
}

func (s *contactService) ImportContactsFromSheet(ctx context.Context) (*ImportResult, error) {
	if s.sheets == nil {
		return nil, errors.New("sheets are not configured")
	}
	logger.EnterMethod("contactService.ImportContactsFromSheet", "range", s.sheetsRange)

	rows, err := s.sheets.ReadRange(ctx, s.sheetsRange)
	if err != nil {
		logger.ExitMethodWithError("contactService.ImportContactsFromSheet", err)
		return nil, fmt.Errorf("failed to read contacts sheet: %w", err)
	}

	result := &ImportResult{}
	for _, row := range rows {
		c := &domain.Contact{
			Name:  strings.TrimSpace(column(row, "name")),
			Email: domain.NormalizeEmail(column(row, "email")),
			Phone: column(row, "phone"),
			Role:  column(row, "role"),
			Notes: column(row, "notes"),
		}
		if c.Name == "" || c.Email == "" {
			result.Skipped++
			continue
		}

		existing, err := s.repo.FindByEmail(ctx, c.Email)
		switch {
		case err == nil:
			c.ID = existing.ID
			result.Updated++
		case errors.Is(err, domain.ErrNotFound):
			result.Created++
		default:
			return result, fmt.Errorf("failed to look up contact %s: %w", c.Email, err)
		}
		if _, err := s.SaveContact(ctx, c); err != nil {
			return result, err
		}
	}

	logger.ExitMethod("contactService.ImportContactsFromSheet", "created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}
