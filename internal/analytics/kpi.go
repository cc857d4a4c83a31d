package analytics

import (
	"math"
	"time"

	"github.com/palmyard/backend/internal/models"
)

// DefaultDailyTarget is the per-day intake baseline in kilograms.
const DefaultDailyTarget = 40000.0

// workWeekDays assumes a six day receiving week.
const workWeekDays = 6

type KPI struct {
	TotalNet        float64 `json:"total_net"`
	TotalBunch      float64 `json:"total_bunch"`
	Trips           int     `json:"trips"`
	AvgRatio        float64 `json:"avg_ratio"`
	Target          float64 `json:"target"`
	Progress        float64 `json:"progress"`
	AvgDwellMinutes float64 `json:"avg_dwell_minutes"`
	DwellSamples    int     `json:"dwell_samples"`
}

// TargetDays is the number of baseline days implied by the window.
func TargetDays(now time.Time, w Window) int {
	switch w.Kind {
	case WindowWeek:
		return workWeekDays
	case WindowMonth:
		return daysInMonth(now)
	case WindowCustom:
		start, okStart := parseDate(w.Start)
		end, okEnd := parseDate(w.End)
		if !okStart || !okEnd {
			return 1
		}
		days := daysBetween(start, end) + 1
		if days < 1 {
			return 1
		}
		return days
	default:
		return 1
	}
}

func DynamicTarget(now time.Time, w Window, baseline float64) float64 {
	return baseline * float64(TargetDays(now, w))
}

// ComputeKPI aggregates an already filtered ticket set.
func ComputeKPI(tickets []models.Ticket, now time.Time, w Window, baseline float64) KPI {
	var k KPI
	dwellTotal := 0
	for _, t := range tickets {
		k.TotalNet += t.NetWeight
		k.TotalBunch += t.BunchCount
		k.Trips++
		if d, ok := ticketDwell(t); ok {
			dwellTotal += d
			k.DwellSamples++
		}
	}
	k.AvgRatio = safeDiv(k.TotalNet, k.TotalBunch)
	if k.DwellSamples > 0 {
		k.AvgDwellMinutes = float64(dwellTotal) / float64(k.DwellSamples)
	}
	k.Target = DynamicTarget(now, w, baseline)
	if k.Target > 0 {
		k.Progress = math.Min(k.TotalNet/k.Target*100, 100)
	}
	return k
}

func daysInMonth(now time.Time) int {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
