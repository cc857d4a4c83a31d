package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmyard/backend/internal/models"
)

func TestStreakConsecutiveDays(t *testing.T) {
	assert.Equal(t, 3, Streak([]string{"2024-03-10", "2024-03-09", "2024-03-08"}))
	assert.Equal(t, 3, Streak([]string{"2024-03-08", "2024-03-10", "2024-03-06", "2024-03-09"}))
	assert.Equal(t, 1, Streak([]string{"2024-03-10", "2024-03-08"}))
	assert.Equal(t, 2, Streak([]string{"2024-03-01", "2024-02-29", "2024-02-29"}))
	assert.Equal(t, 0, Streak(nil))
	assert.Equal(t, 1, Streak([]string{"bad", "2024-01-01"}))
}

func TestTierThresholds(t *testing.T) {
	assert.Equal(t, TierRookie, TierFor(7))
	assert.Equal(t, TierPro, TierFor(8))
	assert.Equal(t, TierPro, TierFor(19))
	assert.Equal(t, TierLegend, TierFor(20))
}

func ticketsForPlate(plate string, n int, start time.Time) []models.Ticket {
	out := make([]models.Ticket, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Ticket{
			ID:          fmt.Sprintf("%s-%d", plate, i),
			Date:        start.AddDate(0, 0, -i).Format(DateLayout),
			PlateNumber: plate,
			NetWeight:   100,
		})
	}
	return out
}

func TestBuildLeaderboardTierUsesLifetime(t *testing.T) {
	start := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	history := append(ticketsForPlate("PRO", 8, start), ticketsForPlate("LEG", 20, start)...)
	history = append(history, ticketsForPlate("ROOK", 7, start)...)

	// Only the most recent ticket of each plate is inside the window.
	filtered := []models.Ticket{history[0], history[8], history[28]}
	stats := BuildLeaderboard(history, filtered)
	require.Len(t, stats, 3)

	byPlate := map[string]VehicleStat{}
	for _, s := range stats {
		byPlate[s.PlateNumber] = s
	}
	assert.Equal(t, TierPro, byPlate["PRO"].Tier)
	assert.Equal(t, TierLegend, byPlate["LEG"].Tier)
	assert.Equal(t, TierRookie, byPlate["ROOK"].Tier)
	assert.Equal(t, 20, byPlate["LEG"].Streak)
	assert.Equal(t, 1, byPlate["LEG"].Trips)
	assert.Equal(t, 20, byPlate["LEG"].LifetimeTrips)
}

func TestBuildLeaderboardStreakIgnoresWindow(t *testing.T) {
	history := []models.Ticket{
		{ID: "1", PlateNumber: "A", Date: "2024-03-10", NetWeight: 10},
		{ID: "2", PlateNumber: "A", Date: "2024-03-09", NetWeight: 10},
		{ID: "3", PlateNumber: "A", Date: "2024-03-08", NetWeight: 10},
	}
	stats := BuildLeaderboard(history, history[:1])
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].Streak)

	history = append(history, models.Ticket{ID: "4", PlateNumber: "A", Date: "2024-03-06", NetWeight: 10})
	stats = BuildLeaderboard(history, history[:1])
	assert.Equal(t, 3, stats[0].Streak)
}

func TestBuildLeaderboardExcludesPlatesOutsideFilter(t *testing.T) {
	history := []models.Ticket{
		{ID: "1", PlateNumber: "A", Date: "2024-03-10", NetWeight: 10},
		{ID: "2", PlateNumber: "B", Date: "2024-03-01", NetWeight: 99999},
	}
	stats := BuildLeaderboard(history, history[:1])
	require.Len(t, stats, 1)
	assert.Equal(t, "A", stats[0].PlateNumber)
}

func TestBuildLeaderboardTotalsAndOrdering(t *testing.T) {
	filtered := []models.Ticket{
		{ID: "1", PlateNumber: "A", Date: "2024-03-08", NetWeight: 100, TimeIn: "08:00", TimeOut: "08:30"},
		{ID: "2", PlateNumber: "A", Date: "2024-03-10", NetWeight: 100, TimeIn: "23:50", TimeOut: "00:40"},
		{ID: "3", PlateNumber: "A", Date: "2024-03-09", NetWeight: 100, TimeIn: "08:00", TimeOut: "08:00"},
		{ID: "4", PlateNumber: "B", Date: "2024-03-09", NetWeight: 500, TimeIn: "01:00", TimeOut: "07:00"},
	}
	stats := BuildLeaderboard(filtered, filtered)
	require.Len(t, stats, 2)

	assert.Equal(t, "B", stats[0].PlateNumber)
	assert.Equal(t, 0.0, stats[0].AvgDwellMinutes)

	a := stats[1]
	assert.Equal(t, 3, a.Trips)
	assert.Equal(t, 300.0, a.TotalNet)
	assert.Equal(t, "2024-03-10", a.LastVisit)
	assert.Equal(t, 40.0, a.AvgDwellMinutes)
	assert.Len(t, a.Tickets, 3)
}
