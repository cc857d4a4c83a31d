package analytics

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/palmyard/backend/internal/models"
)

// trendDays is how many distinct dates the recent trends keep.
const trendDays = 14

type TrendPoint struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

type LocationReport struct {
	Location   string       `json:"location"`
	TotalNet   float64      `json:"total_net"`
	TotalBunch float64      `json:"total_bunch"`
	Trips      int          `json:"trips"`
	AvgRatio   float64      `json:"avg_ratio"`
	Trend      []TrendPoint `json:"trend"`
}

// DailyTrend sums net weight per distinct date, oldest first.
func DailyTrend(tickets []models.Ticket) []TrendPoint {
	sums := map[string]float64{}
	for _, t := range tickets {
		sums[t.Date] += t.NetWeight
	}
	dates := lo.Keys(sums)
	sort.Strings(dates)
	out := make([]TrendPoint, 0, len(dates))
	for _, d := range dates {
		out = append(out, TrendPoint{Date: d, Total: sums[d]})
	}
	return out
}

func lastTrend(trend []TrendPoint, n int) []TrendPoint {
	if len(trend) <= n {
		return trend
	}
	return trend[len(trend)-n:]
}

// AnalyzeLocation summarises the full history of one location. It returns
// nil when no location is selected.
func AnalyzeLocation(history []models.Ticket, location string) *LocationReport {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil
	}
	ts := lo.Filter(history, func(t models.Ticket, _ int) bool { return t.Location == location })

	r := &LocationReport{Location: location}
	for _, t := range ts {
		r.TotalNet += t.NetWeight
		r.TotalBunch += t.BunchCount
		r.Trips++
	}
	r.AvgRatio = safeDiv(r.TotalNet, r.TotalBunch)
	r.Trend = lastTrend(DailyTrend(ts), trendDays)
	return r
}

// Locations lists the distinct non-empty locations, sorted.
func Locations(history []models.Ticket) []string {
	locs := lo.Uniq(lo.FilterMap(history, func(t models.Ticket, _ int) (string, bool) {
		return t.Location, strings.TrimSpace(t.Location) != ""
	}))
	sort.Strings(locs)
	return locs
}
