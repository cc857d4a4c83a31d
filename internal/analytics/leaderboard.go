package analytics

import (
	"sort"

	"github.com/samber/lo"

	"github.com/palmyard/backend/internal/models"
)

type Tier string

const (
	TierRookie Tier = "Rookie"
	TierPro    Tier = "Pro"
	TierLegend Tier = "Legend"
)

const (
	legendTrips = 20
	proTrips    = 8
)

func TierFor(lifetimeTrips int) Tier {
	switch {
	case lifetimeTrips >= legendTrips:
		return TierLegend
	case lifetimeTrips >= proTrips:
		return TierPro
	default:
		return TierRookie
	}
}

// Streak counts consecutive calendar days ending at the most recent date.
// Duplicate and malformed dates are ignored.
func Streak(dates []string) int {
	parsed := make([]string, 0, len(dates))
	for _, d := range lo.Uniq(dates) {
		if _, ok := parseDate(d); ok {
			parsed = append(parsed, d)
		}
	}
	if len(parsed) == 0 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.StringSlice(parsed)))

	streak := 1
	for i := 0; i+1 < len(parsed); i++ {
		cur, _ := parseDate(parsed[i])
		older, _ := parseDate(parsed[i+1])
		if daysBetween(older, cur) != 1 {
			break
		}
		streak++
	}
	return streak
}

type VehicleStat struct {
	PlateNumber     string          `json:"plate_number"`
	Trips           int             `json:"trips"`
	TotalNet        float64         `json:"total_net"`
	AvgDwellMinutes float64         `json:"avg_dwell_minutes"`
	LastVisit       string          `json:"last_visit"`
	Streak          int             `json:"streak"`
	LifetimeTrips   int             `json:"lifetime_trips"`
	Tier            Tier            `json:"tier"`
	Tickets         []models.Ticket `json:"tickets"`

	dwellSamples int
}

type loyalty struct {
	streak int
	trips  int
}

// BuildLeaderboard merges lifetime loyalty (streak and tier, from history)
// with per-plate totals over filtered. Only plates present in filtered are
// returned, heaviest first.
func BuildLeaderboard(history, filtered []models.Ticket) []VehicleStat {
	global := map[string]loyalty{}
	for plate, ts := range lo.GroupBy(history, func(t models.Ticket) string { return t.PlateNumber }) {
		dates := lo.Map(ts, func(t models.Ticket, _ int) string { return t.Date })
		global[plate] = loyalty{streak: Streak(dates), trips: len(ts)}
	}

	byPlate := map[string]*VehicleStat{}
	for _, t := range filtered {
		s, ok := byPlate[t.PlateNumber]
		if !ok {
			s = &VehicleStat{PlateNumber: t.PlateNumber}
			byPlate[t.PlateNumber] = s
		}
		s.Trips++
		s.TotalNet += t.NetWeight
		s.Tickets = append(s.Tickets, t)
		if t.Date > s.LastVisit {
			s.LastVisit = t.Date
		}
		if d, ok := ticketDwell(t); ok {
			s.dwellSamples++
			n := float64(s.dwellSamples)
			s.AvgDwellMinutes = (s.AvgDwellMinutes*(n-1) + float64(d)) / n
		}
	}

	out := make([]VehicleStat, 0, len(byPlate))
	for plate, s := range byPlate {
		g := global[plate]
		s.Streak = g.streak
		s.LifetimeTrips = g.trips
		s.Tier = TierFor(g.trips)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalNet == out[j].TotalNet {
			return out[i].PlateNumber < out[j].PlateNumber
		}
		return out[i].TotalNet > out[j].TotalNet
	})
	return out
}
