package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"troop-backend/internal/webhook"
)

const (
	minYear = 2000
	maxYear = 2100
)

// queryYear reads ?year=, defaulting to the current year.
func queryYear(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return time.Now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < minYear || year > maxYear {
		return 0, fmt.Errorf("%w: year must be between %d and %d", ErrBadBody, minYear, maxYear)
	}
	return year, nil
}

func (h *Handler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r)
	if err != nil {
		writeError(w, err)
		return
	}
	events, err := h.svc.Calendar.EventsForYear(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) CalendarMonth(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r)
	if err != nil {
		writeError(w, err)
		return
	}
	month := time.Now().Month()
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			writeError(w, fmt.Errorf("%w: month must be between 1 and 12", ErrBadBody))
			return
		}
		month = time.Month(m)
	}
	grid, err := h.svc.Calendar.MonthGrid(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (h *Handler) CalendarICS(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := h.svc.Calendar.ExportICS(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="calendar-%d.ics"`, year))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (h *Handler) CalendarOp(w http.ResponseWriter, r *http.Request) {
	var op webhook.CalendarOp
	if err := decodeJSON(w, r, &op); err != nil {
		writeError(w, err)
		return
	}
	if err := op.Validate(); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.Calendar.Apply(r.Context(), op)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
