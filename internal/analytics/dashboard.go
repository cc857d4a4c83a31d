package analytics

import (
	"time"

	"github.com/palmyard/backend/internal/models"
)

type DashboardParams struct {
	Now      time.Time
	Window   Window
	Search   Search
	Location string
	Baseline float64
	Forecast ForecastOptions
	Weather  []models.WeatherRecord
}

type Dashboard struct {
	Window          Window          `json:"window"`
	KPI             KPI             `json:"kpi"`
	Quality         Quality         `json:"quality"`
	Leaderboard     []VehicleStat   `json:"leaderboard"`
	Trend           []TrendPoint    `json:"trend"`
	Location        *LocationReport `json:"location"`
	Locations       []string        `json:"locations"`
	Forecast        ForecastResult  `json:"forecast"`
	ForecastWeather []WeatherPoint  `json:"forecast_weather"`
}

// BuildDashboard derives every view from one history snapshot. Window-scoped
// views read the filtered subset; streaks, location analytics and the
// forecast read the whole history.
func BuildDashboard(history []models.Ticket, p DashboardParams) Dashboard {
	filtered := Filter(history, p.Now, p.Window, p.Search)
	fc := Forecast(history, p.Forecast)
	return Dashboard{
		Window:          p.Window,
		KPI:             ComputeKPI(filtered, p.Now, p.Window, p.Baseline),
		Quality:         GradeTickets(filtered),
		Leaderboard:     BuildLeaderboard(history, filtered),
		Trend:           DailyTrend(filtered),
		Location:        AnalyzeLocation(history, p.Location),
		Locations:       Locations(history),
		Forecast:        fc,
		ForecastWeather: JoinWeather(fc.Points, p.Weather),
	}
}
