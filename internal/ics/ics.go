// Package ics writes the small RFC 5545 subset needed to export the troop
// calendar: one VCALENDAR of VEVENTs with UTC or date-only times.
package ics

import (
	"strings"
	"time"
	"unicode/utf8"

	"troop-backend/internal/domain"
)

const (
	crlf       = "\r\n"
	maxLineLen = 75
	prodID     = "-//troop-backend//Troop Calendar//EN"
)

var now = time.Now

// FormatDateTime renders t in UTC as YYYYMMDDTHHMMSSZ.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// FormatDate renders the calendar date of t as YYYYMMDD.
func FormatDate(t time.Time) string {
	return t.Format("20060102")
}

// Escape escapes TEXT property values.
func Escape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
		"\r", `\n`,
	)
	return r.Replace(s)
}

// Generate renders events as a VCALENDAR document with CRLF line endings.
func Generate(calendarName string, events []domain.CalendarEvent) string {
	var b strings.Builder
	w := func(line string) {
		b.WriteString(fold(line))
		b.WriteString(crlf)
	}

	w("BEGIN:VCALENDAR")
	w("VERSION:2.0")
	w("PRODID:" + prodID)
	w("CALSCALE:GREGORIAN")
	w("METHOD:PUBLISH")
	if calendarName != "" {
		w("X-WR-CALNAME:" + Escape(calendarName))
	}

	stamp := FormatDateTime(now())
	for _, e := range events {
		w("BEGIN:VEVENT")
		w("UID:" + uid(e))
		w("DTSTAMP:" + stamp)
		if e.IsAllDay {
			end := e.EndDate
			if end.Before(e.StartDate) {
				end = e.StartDate
			}
			w("DTSTART;VALUE=DATE:" + FormatDate(e.StartDate))
			w("DTEND;VALUE=DATE:" + FormatDate(end.AddDate(0, 0, 1)))
		} else {
			w("DTSTART:" + FormatDateTime(e.StartDate))
			w("DTEND:" + FormatDateTime(e.EndDate))
		}
		w("SUMMARY:" + Escape(e.Title))
		if e.Description != "" {
			w("DESCRIPTION:" + Escape(e.Description))
		}
		if e.Location != "" {
			w("LOCATION:" + Escape(e.Location))
		}
		if status := strings.ToUpper(e.Status); status == "CONFIRMED" || status == "TENTATIVE" || status == "CANCELLED" {
			w("STATUS:" + status)
		}
		w("END:VEVENT")
	}
	w("END:VCALENDAR")
	return b.String()
}

func uid(e domain.CalendarEvent) string {
	if e.ID != "" {
		return Escape(e.ID) + "@troop-backend"
	}
	return FormatDateTime(e.StartDate) + "-" + Escape(strings.ToLower(strings.ReplaceAll(e.Title, " ", "-"))) + "@troop-backend"
}

// fold splits a content line into 75-octet chunks joined by CRLF and a space,
// never splitting a UTF-8 sequence.
func fold(line string) string {
	if len(line) <= maxLineLen {
		return line
	}
	var b strings.Builder
	limit := maxLineLen
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString(crlf + " ")
		line = line[cut:]
		limit = maxLineLen - 1 // continuation lines start with the space
	}
	b.WriteString(line)
	return b.String()
}
