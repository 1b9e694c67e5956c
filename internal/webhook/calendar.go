package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"troop-backend/internal/domain"
)

var (
	ErrInvalidCalendarOp = errors.New("invalid calendar operation")
	ErrCalendarOpFailed  = errors.New("calendar operation failed")
)

type CalendarOpKind string

const (
	CalendarCreate CalendarOpKind = "create"
	CalendarUpdate CalendarOpKind = "update"
	CalendarDelete CalendarOpKind = "delete"
	CalendarList   CalendarOpKind = "list"
	CalendarGet    CalendarOpKind = "get"
)

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CalendarOp is the single request shape the calendar script accepts. Which
// optional field is required depends on Kind.
type CalendarOp struct {
	Kind    CalendarOpKind        `json:"kind"`
	Event   *domain.CalendarEvent `json:"event,omitempty"`
	EventID string                `json:"eventId,omitempty"`
	Range   *DateRange            `json:"range,omitempty"`
}

func (op CalendarOp) Validate() error {
	switch op.Kind {
	case CalendarCreate:
		if op.Event == nil || op.Event.Title == "" {
			return fmt.Errorf("%w: create needs an event with a title", ErrInvalidCalendarOp)
		}
	case CalendarUpdate:
		if op.EventID == "" || op.Event == nil {
			return fmt.Errorf("%w: update needs eventId and event", ErrInvalidCalendarOp)
		}
	case CalendarDelete, CalendarGet:
		if op.EventID == "" {
			return fmt.Errorf("%w: %s needs eventId", ErrInvalidCalendarOp, op.Kind)
		}
	case CalendarList:
		if op.Range == nil || op.Range.End.Before(op.Range.Start) {
			return fmt.Errorf("%w: list needs a range", ErrInvalidCalendarOp)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCalendarOp, op.Kind)
	}
	return nil
}

type CalendarResponse struct {
	Success   bool                   `json:"success"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Event     *domain.CalendarEvent  `json:"event,omitempty"`
	Events    []domain.CalendarEvent `json:"events,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Calendar runs op against the script. A response with success=false is
// returned as an error carrying the script's message.
func (c *Client) Calendar(ctx context.Context, op CalendarOp) (*CalendarResponse, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	body, err := c.post(ctx, "calendar."+string(op.Kind), op)
	if err != nil {
		return nil, err
	}

	var resp CalendarResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse calendar response: %w", err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		return &resp, fmt.Errorf("%w: %s", ErrCalendarOpFailed, msg)
	}
	return &resp, nil
}
