// Package google wraps the read paths of the Google Calendar and Sheets APIs,
// plus the Sheets append used as the fallback email queue.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"troop-backend/internal/domain"
	"troop-backend/internal/logger"
)

type CalendarClient struct {
	svc        *calendar.Service
	primaryID  string
	fallbackID string
}

// NewCalendarClient authenticates with an API key. Extra options are appended
// after the key, which is how tests point the client at a local server.
func NewCalendarClient(ctx context.Context, apiKey, primaryID, fallbackID string, opts ...option.ClientOption) (*CalendarClient, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return &CalendarClient{svc: svc, primaryID: primaryID, fallbackID: fallbackID}, nil
}

// ListEvents returns the expanded events between from and to, ordered by start.
// An auth or not-found failure on the primary calendar is retried once against
// the fallback calendar.
func (c *CalendarClient) ListEvents(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error) {
	items, err := c.fetch(ctx, c.primaryID, from, to)
	if err != nil && c.fallbackID != "" && c.fallbackID != c.primaryID && shouldFallback(err) {
		logger.Warn("Primary calendar unavailable, using fallback", "calendarID", c.primaryID, "error", err)
		items, err = c.fetch(ctx, c.fallbackID, from, to)
	}
	if err != nil {
		return nil, err
	}
	return ParseEvents(items), nil
}

func (c *CalendarClient) fetch(ctx context.Context, calendarID string, from, to time.Time) ([]*calendar.Event, error) {
	logger.ExternalServiceCall("google-calendar", "events.list", "calendarID", calendarID, "from", from, "to", to)
	var items []*calendar.Event
	err := c.svc.Events.List(calendarID).
		TimeMin(from.UTC().Format(time.RFC3339)).
		TimeMax(to.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(2500).
		Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	logger.ExternalServiceResult("google-calendar", "events.list", err, "calendarID", calendarID, "count", len(items))
	return items, err
}

func shouldFallback(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// ParseEvents converts API items into CalendarEvents. Items without a usable
// start are dropped. The result is never nil.
func ParseEvents(items []*calendar.Event) []domain.CalendarEvent {
	out := make([]domain.CalendarEvent, 0, len(items))
	for _, item := range items {
		if item == nil || item.Start == nil {
			continue
		}
		ev := domain.CalendarEvent{
			ID:          item.Id,
			Title:       item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Status:      item.Status,
			Created:     parseTimestamp(item.Created),
			Updated:     parseTimestamp(item.Updated),
		}
		if item.Start.Date != "" {
			start, err := time.Parse(time.DateOnly, item.Start.Date)
			if err != nil {
				continue
			}
			ev.IsAllDay = true
			ev.StartDate = start
			ev.EndDate = start
			if item.End != nil && item.End.Date != "" {
				// Google's all-day end is exclusive.
				if end, err := time.Parse(time.DateOnly, item.End.Date); err == nil && end.After(start) {
					ev.EndDate = end.AddDate(0, 0, -1)
				}
			}
		} else {
			start, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				continue
			}
			ev.StartDate = start
			ev.EndDate = start
			if item.End != nil {
				if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil && !end.Before(start) {
					ev.EndDate = end
				}
			}
		}
		out = append(out, ev)
	}
	return out
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
