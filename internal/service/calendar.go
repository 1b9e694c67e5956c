package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"troop-backend/internal/domain"
	"troop-backend/internal/ics"
	"troop-backend/internal/logger"
	"troop-backend/internal/webhook"
)

const yearCacheTTL = 5 * time.Minute

type cachedYear struct {
	events    []domain.CalendarEvent
	fetchedAt time.Time
}

type calendarService struct {
	source       EventSource
	writer       CalendarWriter
	calendarName string
	now          func() time.Time

	mu    sync.Mutex
	years map[int]cachedYear
}

// NewCalendarService reads through source and writes through writer. writer
// may be nil when no webhook is configured; Apply then fails.
func NewCalendarService(source EventSource, writer CalendarWriter, calendarName string) CalendarService {
	return &calendarService{
		source:       source,
		writer:       writer,
		calendarName: calendarName,
		now:          time.Now,
		years:        map[int]cachedYear{},
	}
}

// EventsForYear fetches the whole year in one call and keeps it for a few minutes.
func (s *calendarService) EventsForYear(ctx context.Context, year int) ([]domain.CalendarEvent, error) {
	s.mu.Lock()
	if c, ok := s.years[year]; ok && s.now().Sub(c.fetchedAt) < yearCacheTTL {
		s.mu.Unlock()
		return c.events, nil
	}
	s.mu.Unlock()

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	events, err := s.source.ListEvents(ctx, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to load %d events: %w", year, err)
	}

	s.mu.Lock()
	s.years[year] = cachedYear{events: events, fetchedAt: s.now()}
	s.mu.Unlock()
	return events, nil
}

func (s *calendarService) MonthGrid(ctx context.Context, year int, month time.Month) (*domain.MonthGrid, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	events, err := s.EventsForYear(ctx, year)
	if err != nil {
		return nil, err
	}
	// Leading and trailing days of the grid may fall in the neighbouring year.
	if month == time.January {
		if prev, err := s.EventsForYear(ctx, year-1); err == nil {
			events = mergeEvents(prev, events)
		}
	}
	if month == time.December {
		if next, err := s.EventsForYear(ctx, year+1); err == nil {
			events = mergeEvents(events, next)
		}
	}
	return domain.BuildMonthGrid(events, year, month), nil
}

// mergeEvents concatenates two year fetches. An event spanning New Year is
// returned by both and is kept once, at its first position.
func mergeEvents(first, second []domain.CalendarEvent) []domain.CalendarEvent {
	out := make([]domain.CalendarEvent, 0, len(first)+len(second))
	seen := make(map[string]bool, len(first)+len(second))
	for _, e := range append(append([]domain.CalendarEvent{}, first...), second...) {
		if e.ID != "" && seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

func (s *calendarService) ExportICS(ctx context.Context, year int) (string, error) {
	events, err := s.EventsForYear(ctx, year)
	if err != nil {
		return "", err
	}
	return ics.Generate(s.calendarName, events), nil
}

func (s *calendarService) Apply(ctx context.Context, op webhook.CalendarOp) (*webhook.CalendarResponse, error) {
	if s.writer == nil {
		return nil, webhook.ErrNotConfigured
	}
	resp, err := s.writer.Calendar(ctx, op)
	if err != nil {
		return resp, err
	}
	if op.Kind != webhook.CalendarList && op.Kind != webhook.CalendarGet {
		s.invalidate()
	}
	logger.Info("Calendar operation applied", "kind", op.Kind, "eventID", op.EventID)
	return resp, nil
}

func (s *calendarService) invalidate() {
	s.mu.Lock()
	s.years = map[int]cachedYear{}
	s.mu.Unlock()
}
