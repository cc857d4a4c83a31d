package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/palmyard/backend/internal/analytics"
	"github.com/palmyard/backend/internal/models"
	"github.com/palmyard/backend/internal/ticketcsv"
	"github.com/palmyard/backend/internal/utils"
	"github.com/palmyard/backend/internal/weather"
)

var ErrNotFound = errors.New("not found")

const forecastHistoryDays = 14

// DashboardService runs the analytics engine over the stored history with
// the plant's configured target, forecast settings and timezone.
type DashboardService struct {
	History  TicketSource
	Weather  weather.Provider
	Baseline float64
	Jitter   float64
	Seed     uint64
	Location *time.Location
	Clock    func() time.Time
	Logger   zerolog.Logger
}

// Query selects what a dashboard call looks at. A zero Now means the
// current time in the plant's timezone.
type Query struct {
	Window   analytics.Window
	Search   analytics.Search
	Location string
	Now      time.Time
	Horizon  int
}

func (s *DashboardService) baseline() float64 {
	if s.Baseline <= 0 {
		return analytics.DefaultDailyTarget
	}
	return s.Baseline
}

func (s *DashboardService) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

// ReferenceDay parses YYYY-MM-DD as noon in the plant's timezone, for
// evaluating windows as of a past day.
func (s *DashboardService) ReferenceDay(date string) (time.Time, error) {
	d, err := time.ParseInLocation(analytics.DateLayout, date, s.location())
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(12 * time.Hour), nil
}

func (s *DashboardService) now(q Query) time.Time {
	loc := s.location()
	if !q.Now.IsZero() {
		return q.Now.In(loc)
	}
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	return clock().In(loc)
}

// forecastOptions pins the seed to the last recorded date when none is
// configured, so the same history always projects the same line.
func (s *DashboardService) forecastOptions(history []models.Ticket, horizon int) analytics.ForecastOptions {
	opts := analytics.DefaultForecastOptions()
	opts.Jitter = s.Jitter
	if horizon > 0 {
		opts.Horizon = horizon
	}
	opts.Seed = s.Seed
	if opts.Seed == 0 {
		opts.Seed = utils.HashStrings(lastDate(history))
	}
	return opts
}

func lastDate(history []models.Ticket) string {
	return lo.Reduce(history, func(acc string, t models.Ticket, _ int) string {
		if t.Date > acc {
			return t.Date
		}
		return acc
	}, "")
}

// weatherFor returns weather for [last-13, last+horizon]. Provider errors
// are logged and the dashboard falls back to unknown weather.
func (s *DashboardService) weatherFor(ctx context.Context, history []models.Ticket, horizon int) []models.WeatherRecord {
	if s.Weather == nil {
		return nil
	}
	last, err := time.Parse(analytics.DateLayout, lastDate(history))
	if err != nil {
		return nil
	}
	from := last.AddDate(0, 0, -(forecastHistoryDays - 1)).Format(analytics.DateLayout)
	to := last.AddDate(0, 0, horizon).Format(analytics.DateLayout)
	recs, err := s.Weather.Daily(ctx, from, to)
	if err != nil {
		s.Logger.Warn().Err(err).Str("from", from).Str("to", to).Msg("weather lookup failed")
		return nil
	}
	return recs
}

func (s *DashboardService) Dashboard(ctx context.Context, q Query) (analytics.Dashboard, error) {
	history, err := s.History.ListTickets(ctx)
	if err != nil {
		return analytics.Dashboard{}, err
	}
	opts := s.forecastOptions(history, q.Horizon)
	return analytics.BuildDashboard(history, analytics.DashboardParams{
		Now:      s.now(q),
		Window:   q.Window,
		Search:   q.Search,
		Location: q.Location,
		Baseline: s.baseline(),
		Forecast: opts,
		Weather:  s.weatherFor(ctx, history, opts.Horizon),
	}), nil
}

// Tickets returns the tickets in the query's window that match its search.
func (s *DashboardService) Tickets(ctx context.Context, q Query) ([]models.Ticket, error) {
	history, err := s.History.ListTickets(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Filter(history, s.now(q), q.Window, q.Search), nil
}

func (s *DashboardService) Export(ctx context.Context, w io.Writer, q Query) error {
	tickets, err := s.Tickets(ctx, q)
	if err != nil {
		return err
	}
	return ticketcsv.Write(w, tickets, ticketcsv.DefaultDelimiter)
}

func (s *DashboardService) Locations(ctx context.Context) ([]string, error) {
	history, err := s.History.ListTickets(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Locations(history), nil
}

// LocationReport returns ErrNotFound when no ticket carries the location.
func (s *DashboardService) LocationReport(ctx context.Context, name string) (*analytics.LocationReport, error) {
	history, err := s.History.ListTickets(ctx)
	if err != nil {
		return nil, err
	}
	rep := analytics.AnalyzeLocation(history, name)
	if rep == nil || rep.Trips == 0 {
		return nil, ErrNotFound
	}
	return rep, nil
}

type ForecastView struct {
	analytics.ForecastResult
	Weather []analytics.WeatherPoint `json:"weather"`
}

func (s *DashboardService) Forecast(ctx context.Context, horizon int) (ForecastView, error) {
	history, err := s.History.ListTickets(ctx)
	if err != nil {
		return ForecastView{}, err
	}
	opts := s.forecastOptions(history, horizon)
	fc := analytics.Forecast(history, opts)
	return ForecastView{
		ForecastResult: fc,
		Weather:        analytics.JoinWeather(fc.Points, s.weatherFor(ctx, history, opts.Horizon)),
	}, nil
}
