package analytics

import (
	"strconv"
	"strings"

	"github.com/palmyard/backend/internal/models"
)

const (
	minutesPerDay = 24 * 60
	// MaxDwellMinutes is the exclusive upper bound for a believable dwell;
	// longer samples are treated as entry errors.
	MaxDwellMinutes = 300
)

// DwellMinutes returns out-in in minutes, wrapping across midnight. ok is
// false when either clock value is missing or malformed.
func DwellMinutes(timeIn, timeOut string) (int, bool) {
	in, ok := parseClock(timeIn)
	if !ok {
		return 0, false
	}
	out, ok := parseClock(timeOut)
	if !ok {
		return 0, false
	}
	d := out - in
	if d < 0 {
		d += minutesPerDay
	}
	return d, true
}

// ValidDwell reports whether a sample may enter a dwell average.
func ValidDwell(minutes int) bool {
	return minutes > 0 && minutes < MaxDwellMinutes
}

func ticketDwell(t models.Ticket) (int, bool) {
	d, ok := DwellMinutes(t.TimeIn, t.TimeOut)
	if !ok || !ValidDwell(d) {
		return 0, false
	}
	return d, true
}

func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
