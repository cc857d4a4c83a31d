package analytics

import (
	"time"

	"github.com/palmyard/backend/internal/models"
)

const (
	insightTrendDays    = 7
	weatherLookbackDays = 7
	weatherLookahead    = 3
)

// WeatherPoint is a forecast point joined with the weather for its date.
type WeatherPoint struct {
	ForecastPoint
	Condition  models.WeatherCondition `json:"condition"`
	RainfallMM float64                 `json:"rainfall_mm"`
}

func neutralWeather(date string) models.WeatherRecord {
	return models.WeatherRecord{Date: date, Condition: models.WeatherUnknown}
}

func weatherByDate(records []models.WeatherRecord) map[string]models.WeatherRecord {
	out := make(map[string]models.WeatherRecord, len(records))
	for _, r := range records {
		out[r.Date] = r
	}
	return out
}

// JoinWeather attaches weather to every point; dates without a record get
// the unknown condition and zero rainfall.
func JoinWeather(points []ForecastPoint, records []models.WeatherRecord) []WeatherPoint {
	idx := weatherByDate(records)
	out := make([]WeatherPoint, 0, len(points))
	for _, p := range points {
		w, ok := idx[p.Date]
		if !ok {
			w = neutralWeather(p.Date)
		}
		if w.Condition == "" {
			w.Condition = models.WeatherUnknown
		}
		out = append(out, WeatherPoint{ForecastPoint: p, Condition: w.Condition, RainfallMM: w.RainfallMM})
	}
	return out
}

// InsightContext is the numeric context handed to the narrative generator.
type InsightContext struct {
	Reference   string                 `json:"reference"`
	KPI         KPI                    `json:"kpi"`
	RecentTrend []TrendPoint           `json:"recent_trend"`
	Weather     []models.WeatherRecord `json:"weather"`
}

// BuildInsightContext keeps the last week of the trend and the weather from
// seven days before ref to three days after it.
func BuildInsightContext(kpi KPI, trend []TrendPoint, weather []models.WeatherRecord, ref time.Time) InsightContext {
	idx := weatherByDate(weather)
	y, m, d := ref.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	window := make([]models.WeatherRecord, 0, weatherLookbackDays+weatherLookahead+1)
	for i := -weatherLookbackDays; i <= weatherLookahead; i++ {
		date := day.AddDate(0, 0, i).Format(DateLayout)
		w, ok := idx[date]
		if !ok {
			w = neutralWeather(date)
		}
		window = append(window, w)
	}

	recent := append([]TrendPoint(nil), lastTrend(trend, insightTrendDays)...)
	return InsightContext{
		Reference:   day.Format(DateLayout),
		KPI:         kpi,
		RecentTrend: recent,
		Weather:     window,
	}
}
