// Package analytics derives the dashboard views (KPIs, quality grades,
// vehicle leaderboard, location trends and the supply forecast) from a
// snapshot of weighbridge tickets. Every function here is pure: it reads
// its arguments, allocates a fresh result and touches nothing else.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/palmyard/backend/internal/models"
)

const DateLayout = "2006-01-02"

type WindowKind string

const (
	WindowToday  WindowKind = "today"
	WindowWeek   WindowKind = "week"
	WindowMonth  WindowKind = "month"
	WindowCustom WindowKind = "custom"
	WindowAll    WindowKind = "all"
)

// Window is the active time-range filter. Start and End are only read for
// WindowCustom.
type Window struct {
	Kind  WindowKind `json:"kind"`
	Start string     `json:"start,omitempty"`
	End   string     `json:"end,omitempty"`
}

func ParseWindow(kind, start, end string) Window {
	k := WindowKind(strings.ToLower(strings.TrimSpace(kind)))
	switch k {
	case WindowToday, WindowWeek, WindowMonth, WindowCustom, WindowAll:
	default:
		k = WindowAll
	}
	return Window{Kind: k, Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}
}

type SearchCategory string

const (
	SearchAll      SearchCategory = "all"
	SearchTicketID SearchCategory = "id"
	SearchPlate    SearchCategory = "plate"
	SearchLocation SearchCategory = "location"
)

type Search struct {
	Category SearchCategory `json:"category"`
	Query    string         `json:"query"`
}

// Matches reports whether t satisfies the free-text search. An empty query
// matches everything.
func (s Search) Matches(t models.Ticket) bool {
	q := strings.ToLower(strings.TrimSpace(s.Query))
	if q == "" {
		return true
	}
	has := func(v string) bool { return strings.Contains(strings.ToLower(v), q) }
	switch s.Category {
	case SearchTicketID:
		return has(t.ID)
	case SearchPlate:
		return has(t.PlateNumber)
	case SearchLocation:
		return has(t.Location)
	default:
		return has(t.ID) || has(t.PlateNumber) || has(t.Location)
	}
}

// InWindow classifies a ticket date against w, using now (and its location)
// as the reference instant.
func InWindow(now time.Time, w Window, date string) bool {
	loc := now.Location()
	switch w.Kind {
	case WindowToday:
		y, m, d := now.Date()
		return date == fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
	case WindowWeek:
		t, ok := parseDateIn(date, loc)
		if !ok {
			return false
		}
		return !t.Before(weekStart(now))
	case WindowMonth:
		t, ok := parseDateIn(date, loc)
		if !ok {
			return false
		}
		return t.Year() == now.Year() && t.Month() == now.Month()
	case WindowCustom:
		start, okStart := parseDateIn(w.Start, loc)
		end, okEnd := parseDateIn(w.End, loc)
		if !okStart || !okEnd {
			return true
		}
		t, ok := parseDateIn(date, loc)
		if !ok {
			return false
		}
		endOfDay := end.Add(24*time.Hour - time.Second)
		return !t.Before(start) && !t.After(endOfDay)
	default:
		return true
	}
}

// Filter returns the tickets inside w that also satisfy s, in input order.
func Filter(tickets []models.Ticket, now time.Time, w Window, s Search) []models.Ticket {
	out := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if !InWindow(now, w, t.Date) {
			continue
		}
		if !s.Matches(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// weekStart is the most recent Monday 00:00 in now's location. Sunday
// counts as ISO weekday 7.
func weekStart(now time.Time) time.Time {
	wd := int(now.Weekday())
	if wd == 0 {
		wd = 7
	}
	y, m, d := now.Date()
	return time.Date(y, m, d-(wd-1), 0, 0, 0, 0, now.Location())
}

func parseDateIn(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseDate(s string) (time.Time, bool) {
	return parseDateIn(s, time.UTC)
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
