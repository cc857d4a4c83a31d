package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/palmyard/backend/internal/ai"
	"github.com/palmyard/backend/internal/analytics"
	"github.com/palmyard/backend/internal/metrics"
	"github.com/palmyard/backend/internal/models"
)

const (
	insightWeatherBefore = 7
	insightWeatherAfter  = 3
)

type InsightService struct {
	Dashboard *DashboardService
	Narrator  ai.Narrator
	Logger    zerolog.Logger
}

type InsightResult struct {
	Insight ai.Insight               `json:"insight"`
	Context analytics.InsightContext `json:"context"`
}

// Generate summarises the query's KPI and daily trend together with the
// weather around the reference day, then asks the narrator for a briefing.
func (s *InsightService) Generate(ctx context.Context, q Query) (InsightResult, error) {
	d := s.Dashboard
	history, err := d.History.ListTickets(ctx)
	if err != nil {
		return InsightResult{}, err
	}
	now := d.now(q)
	filtered := analytics.Filter(history, now, q.Window, q.Search)
	kpi := analytics.ComputeKPI(filtered, now, q.Window, d.baseline())
	trend := analytics.DailyTrend(filtered)

	var wx []models.WeatherRecord
	if d.Weather != nil {
		from := now.AddDate(0, 0, -insightWeatherBefore).Format(analytics.DateLayout)
		to := now.AddDate(0, 0, insightWeatherAfter).Format(analytics.DateLayout)
		wx, err = d.Weather.Daily(ctx, from, to)
		if err != nil {
			s.Logger.Warn().Err(err).Msg("insight weather lookup failed")
			wx = nil
		}
	}

	ictx := analytics.BuildInsightContext(kpi, trend, wx, now)
	out, err := s.Narrator.Narrate(ctx, ictx)
	if err != nil {
		metrics.InsightRequests.WithLabelValues("error").Inc()
		s.Logger.Error().Err(err).Str("reference", ictx.Reference).Msg("insight generation failed")
		return InsightResult{Context: ictx}, fmt.Errorf("narrate: %w", err)
	}
	metrics.InsightRequests.WithLabelValues("ok").Inc()
	s.Logger.Info().Str("model", out.ModelVersion).Int64("latency_ms", out.LatencyMs).Msg("insight generated")
	return InsightResult{Insight: out, Context: ictx}, nil
}
