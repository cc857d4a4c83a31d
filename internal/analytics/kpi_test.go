package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/palmyard/backend/internal/models"
)

func TestComputeKPIToday(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	history := []models.Ticket{
		{ID: "T1", Date: "2024-03-01", NetWeight: 1000, BunchCount: 50},
		{ID: "T2", Date: "2024-03-01", NetWeight: 500, BunchCount: 20},
		{ID: "T3", Date: "2024-02-29", NetWeight: 9000, BunchCount: 300},
	}
	w := Window{Kind: WindowToday}

	k := ComputeKPI(Filter(history, now, w, Search{}), now, w, DefaultDailyTarget)
	assert.Equal(t, 1500.0, k.TotalNet)
	assert.Equal(t, 70.0, k.TotalBunch)
	assert.Equal(t, 2, k.Trips)
	assert.InDelta(t, 21.43, k.AvgRatio, 0.01)
	assert.Equal(t, 40000.0, k.Target)
	assert.InDelta(t, 3.75, k.Progress, 1e-9)
}

func TestComputeKPIZeroBunches(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	k := ComputeKPI([]models.Ticket{{ID: "T1", NetWeight: 800}}, now, Window{Kind: WindowAll}, DefaultDailyTarget)
	assert.Equal(t, 0.0, k.AvgRatio)
}

func TestComputeKPIProgressCapped(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	k := ComputeKPI([]models.Ticket{{ID: "T1", NetWeight: 90000, BunchCount: 1}}, now, Window{Kind: WindowToday}, DefaultDailyTarget)
	assert.Equal(t, 100.0, k.Progress)
}

func TestDynamicTarget(t *testing.T) {
	april := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1200000.0, DynamicTarget(april, Window{Kind: WindowMonth}, 40000))
	assert.Equal(t, 29*40000.0, DynamicTarget(feb, Window{Kind: WindowMonth}, 40000))
	assert.Equal(t, 240000.0, DynamicTarget(april, Window{Kind: WindowWeek}, 40000))
	assert.Equal(t, 40000.0, DynamicTarget(april, Window{Kind: WindowToday}, 40000))
	assert.Equal(t, 40000.0, DynamicTarget(april, Window{Kind: WindowAll}, 40000))

	custom := Window{Kind: WindowCustom, Start: "2024-01-01", End: "2024-01-05"}
	assert.Equal(t, 200000.0, DynamicTarget(april, custom, 40000))

	reversed := Window{Kind: WindowCustom, Start: "2024-01-05", End: "2024-01-01"}
	assert.Equal(t, 40000.0, DynamicTarget(april, reversed, 40000))
}

func TestDwellMinutes(t *testing.T) {
	d, ok := DwellMinutes("23:50", "00:10")
	assert.True(t, ok)
	assert.Equal(t, 20, d)
	assert.True(t, ValidDwell(d))

	d, ok = DwellMinutes("08:00", "08:00")
	assert.True(t, ok)
	assert.Equal(t, 0, d)
	assert.False(t, ValidDwell(d))

	d, ok = DwellMinutes("06:00", "11:00")
	assert.True(t, ok)
	assert.False(t, ValidDwell(d))

	_, ok = DwellMinutes("", "08:00")
	assert.False(t, ok)
	_, ok = DwellMinutes("8h", "08:00")
	assert.False(t, ok)
}

func TestComputeKPIAverageDwellExcludesOutliers(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tickets := []models.Ticket{
		{ID: "T1", TimeIn: "23:50", TimeOut: "00:10"},
		{ID: "T2", TimeIn: "08:00", TimeOut: "08:40"},
		{ID: "T3", TimeIn: "08:00", TimeOut: "08:00"},
		{ID: "T4", TimeIn: "01:00", TimeOut: "07:00"},
		{ID: "T5", TimeIn: "09:00"},
	}
	k := ComputeKPI(tickets, now, Window{Kind: WindowAll}, DefaultDailyTarget)
	assert.Equal(t, 2, k.DwellSamples)
	assert.Equal(t, 30.0, k.AvgDwellMinutes)
}
