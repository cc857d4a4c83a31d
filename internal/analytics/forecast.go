package analytics

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/samber/lo"

	"github.com/palmyard/backend/internal/models"
)

const (
	baselineDays     = 7
	sundayModifier   = 0.5
	defaultHorizon   = 7
	defaultJitter    = 0.1
	pcgStreamMixSeed = 0x9e3779b97f4a7c15
)

// ForecastPoint is one day on the stitched history/projection line. The
// last historical day carries both values.
type ForecastPoint struct {
	Date      string   `json:"date"`
	Actual    *float64 `json:"actual,omitempty"`
	Predicted *float64 `json:"predicted,omitempty"`
}

// ForecastOptions controls the projection. Jitter is the symmetric
// multiplicative perturbation (0.1 = ±10%); zero disables it. The same Seed
// always yields the same projection.
type ForecastOptions struct {
	Horizon int     `json:"horizon"`
	Jitter  float64 `json:"jitter"`
	Seed    uint64  `json:"seed"`
}

func DefaultForecastOptions() ForecastOptions {
	return ForecastOptions{Horizon: defaultHorizon, Jitter: defaultJitter}
}

type ForecastResult struct {
	Points         []ForecastPoint `json:"points"`
	Baseline       float64         `json:"baseline"`
	TotalProjected float64         `json:"total_projected"`
}

// Forecast projects intake for the days after the last recorded date from
// the mean of the last seven daily totals, halved on Sundays.
func Forecast(history []models.Ticket, opts ForecastOptions) ForecastResult {
	daily := DailyTrend(history)
	if len(daily) == 0 {
		return ForecastResult{Points: []ForecastPoint{}}
	}
	if opts.Horizon <= 0 {
		opts.Horizon = defaultHorizon
	}

	recent := lastTrend(daily, trendDays)
	points := make([]ForecastPoint, 0, len(recent)+opts.Horizon)
	for _, p := range recent {
		points = append(points, ForecastPoint{Date: p.Date, Actual: ptr(p.Total)})
	}
	anchor := &points[len(points)-1]
	anchor.Predicted = ptr(*anchor.Actual)

	window := lastTrend(daily, baselineDays)
	baseline := lo.SumBy(window, func(p TrendPoint) float64 { return p.Total }) / float64(len(window))

	res := ForecastResult{Baseline: baseline}
	last, ok := parseDate(anchor.Date)
	if !ok {
		res.Points = points
		return res
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^pcgStreamMixSeed))
	for i := 1; i <= opts.Horizon; i++ {
		day := last.AddDate(0, 0, i)
		v := baseline * weekdayModifier(day)
		if opts.Jitter > 0 {
			v *= 1 + (rng.Float64()*2-1)*opts.Jitter
		}
		v = math.Round(v)
		res.TotalProjected += v
		points = append(points, ForecastPoint{Date: day.Format(DateLayout), Predicted: ptr(v)})
	}
	res.Points = points
	return res
}

func weekdayModifier(day time.Time) float64 {
	if day.Weekday() == time.Sunday {
		return sundayModifier
	}
	return 1
}

func ptr(v float64) *float64 {
	return &v
}
