package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmyard/backend/internal/models"
)

func TestInWindowTodayUsesLocalCalendar(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 00:30 local on March 2nd is still March 1st in UTC.
	now := time.Date(2024, 3, 2, 0, 30, 0, 0, jakarta)
	w := Window{Kind: WindowToday}

	assert.True(t, InWindow(now, w, "2024-03-02"))
	assert.False(t, InWindow(now, w, "2024-03-01"))

	// Behind UTC: 23:30 local on March 1st is already March 2nd in UTC.
	west := time.FixedZone("UTC-5", -5*3600)
	now = time.Date(2024, 3, 1, 23, 30, 0, 0, west)
	assert.True(t, InWindow(now, w, "2024-03-01"))
	assert.False(t, InWindow(now, w, "2024-03-02"))
}

func TestInWindowWeekStartsMonday(t *testing.T) {
	// 2024-03-06 is a Wednesday, so the week starts on 2024-03-04.
	now := time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)
	w := Window{Kind: WindowWeek}

	assert.True(t, InWindow(now, w, "2024-03-04"))
	assert.True(t, InWindow(now, w, "2024-03-06"))
	assert.False(t, InWindow(now, w, "2024-03-03"))
}

func TestInWindowWeekOnSunday(t *testing.T) {
	// 2024-03-10 is a Sunday; its week began on Monday 2024-03-04.
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	w := Window{Kind: WindowWeek}

	assert.True(t, InWindow(now, w, "2024-03-04"))
	assert.True(t, InWindow(now, w, "2024-03-10"))
	assert.False(t, InWindow(now, w, "2024-03-03"))
}

func TestInWindowMonth(t *testing.T) {
	now := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	w := Window{Kind: WindowMonth}

	assert.True(t, InWindow(now, w, "2024-02-01"))
	assert.True(t, InWindow(now, w, "2024-02-29"))
	assert.False(t, InWindow(now, w, "2024-03-01"))
	assert.False(t, InWindow(now, w, "2023-02-15"))
}

func TestInWindowCustomInclusive(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	w := Window{Kind: WindowCustom, Start: "2024-01-01", End: "2024-01-05"}

	assert.True(t, InWindow(now, w, "2024-01-01"))
	assert.True(t, InWindow(now, w, "2024-01-05"))
	assert.False(t, InWindow(now, w, "2023-12-31"))
	assert.False(t, InWindow(now, w, "2024-01-06"))
}

func TestInWindowCustomMissingBoundsMatchAll(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	w := Window{Kind: WindowCustom, Start: "2024-01-01"}

	assert.True(t, InWindow(now, w, "1999-01-01"))
	assert.True(t, InWindow(now, Window{Kind: WindowAll}, "2030-12-31"))
}

func TestParseWindowFallsBackToAll(t *testing.T) {
	assert.Equal(t, WindowAll, ParseWindow("yearly", "", "").Kind)
	assert.Equal(t, WindowWeek, ParseWindow(" Week ", "", "").Kind)
}

func TestFilterCombinesWindowAndSearch(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tickets := []models.Ticket{
		{ID: "T1", Date: "2024-03-01", PlateNumber: "BK 1234 AA", Location: "Blok A"},
		{ID: "T2", Date: "2024-03-01", PlateNumber: "BK 9999 ZZ", Location: "Blok B"},
		{ID: "T3", Date: "2024-02-28", PlateNumber: "BK 1234 AA", Location: "Blok A"},
	}

	got := Filter(tickets, now, Window{Kind: WindowToday}, Search{Category: SearchPlate, Query: "bk 1234"})
	require.Len(t, got, 1)
	assert.Equal(t, "T1", got[0].ID)

	got = Filter(tickets, now, Window{Kind: WindowToday}, Search{Category: SearchAll, Query: "  "})
	assert.Len(t, got, 2)

	got = Filter(tickets, now, Window{Kind: WindowAll}, Search{Category: SearchLocation, Query: "BLOK A"})
	assert.Len(t, got, 2)

	got = Filter(tickets, now, Window{Kind: WindowAll}, Search{Category: SearchTicketID, Query: "t2"})
	require.Len(t, got, 1)
	assert.Equal(t, "T2", got[0].ID)
}
