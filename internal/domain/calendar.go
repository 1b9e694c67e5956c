package domain

import (
	"time"
)

// CalendarEvent is derived from the Google Calendar API on every fetch and never
// persisted. For all-day events EndDate is the inclusive last day.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	IsAllDay    bool      `json:"isAllDay"`
	Status      string    `json:"status,omitempty"`
	Created     time.Time `json:"created,omitempty"`
	Updated     time.Time `json:"updated,omitempty"`
}

// IsMultiDay reports whether the event covers more than one calendar day.
func (e *CalendarEvent) IsMultiDay() bool {
	return dayOf(e.EndDate).After(dayOf(e.StartDate))
}

// Placement says how an event is drawn in one day cell of the month grid.
type Placement string

const (
	PlacementSingle     Placement = "single"
	PlacementPillStart  Placement = "pill-start"
	PlacementPillMiddle Placement = "pill-middle"
	PlacementPillEnd    Placement = "pill-end"
)

type DayEvent struct {
	Event     CalendarEvent `json:"event"`
	Placement Placement     `json:"placement"`
}

type DayCell struct {
	Date    string     `json:"date"` // YYYY-MM-DD
	InMonth bool       `json:"inMonth"`
	Events  []DayEvent `json:"events"`
}

type MonthGrid struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Weeks [][]DayCell `json:"weeks"`
}

// EventsOnDay returns the events that cover day, in input order. Multi-day
// all-day events become pills; everything else is a single-day entry on the day
// it starts.
func EventsOnDay(events []CalendarEvent, day time.Time) []DayEvent {
	d := dayOf(day)
	out := []DayEvent{}
	for _, e := range events {
		start, end := dayOf(e.StartDate), dayOf(e.EndDate)
		if end.Before(start) {
			end = start
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		if !e.IsAllDay || !e.IsMultiDay() {
			if d.Equal(start) {
				out = append(out, DayEvent{Event: e, Placement: PlacementSingle})
			}
			continue
		}
		p := PlacementPillMiddle
		switch {
		case d.Equal(start):
			p = PlacementPillStart
		case d.Equal(end):
			p = PlacementPillEnd
		}
		out = append(out, DayEvent{Event: e, Placement: p})
	}
	return out
}

// BuildMonthGrid lays out Sunday-first weeks covering the whole month.
func BuildMonthGrid(events []CalendarEvent, year int, month time.Month) *MonthGrid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	cursor := first.AddDate(0, 0, -int(first.Weekday()))

	grid := &MonthGrid{Year: year, Month: month}
	for !cursor.After(last) {
		week := make([]DayCell, 0, 7)
		for i := 0; i < 7; i++ {
			week = append(week, DayCell{
				Date:    cursor.Format(time.DateOnly),
				InMonth: cursor.Month() == month,
				Events:  EventsOnDay(events, cursor),
			})
			cursor = cursor.AddDate(0, 0, 1)
		}
		grid.Weeks = append(grid.Weeks, week)
	}
	return grid
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
