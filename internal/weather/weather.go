package weather

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/palmyard/backend/internal/models"
)

var ErrNotFound = errors.New("weather not found")

const dateLayout = "2006-01-02"

// Provider returns daily weather for the inclusive date range.
type Provider interface {
	Daily(ctx context.Context, from, to string) ([]models.WeatherRecord, error)
}

// ConditionFromCode maps a WMO weather code to a coarse condition.
func ConditionFromCode(code int) models.WeatherCondition {
	switch {
	case code == 0 || code == 1:
		return models.WeatherSunny
	case code == 2 || code == 3 || code == 45 || code == 48:
		return models.WeatherCloudy
	case code >= 51 && code <= 67, code >= 80 && code <= 82:
		return models.WeatherRain
	case code >= 95 && code <= 99:
		return models.WeatherStorm
	default:
		return models.WeatherUnknown
	}
}

// Cache stores weather per date.
type Cache interface {
	ListWeather(ctx context.Context, from, to string) ([]models.WeatherRecord, error)
	UpsertWeather(ctx context.Context, records []models.WeatherRecord) error
}

// CachedProvider serves from Cache and only calls Upstream when some past
// date in the range is missing or the range reaches today. Rows for today and
// later are forecasts and are refreshed on every call. Upstream failures
// degrade to whatever is cached.
type CachedProvider struct {
	Upstream Provider
	Cache    Cache
	Logger   zerolog.Logger
	Clock    func() time.Time
}

func (p CachedProvider) today() string {
	if p.Clock != nil {
		return p.Clock().Format(dateLayout)
	}
	return time.Now().Format(dateLayout)
}

func (p CachedProvider) Daily(ctx context.Context, from, to string) ([]models.WeatherRecord, error) {
	cached, err := p.Cache.ListWeather(ctx, from, to)
	if err != nil {
		return nil, err
	}
	want := daysInRange(from, to)
	if want > 0 && to < p.today() && len(cached) >= want {
		return cached, nil
	}
	if p.Upstream == nil {
		return cached, nil
	}

	fresh, err := p.Upstream.Daily(ctx, from, to)
	if err != nil {
		p.Logger.Warn().Err(err).Str("from", from).Str("to", to).Msg("weather upstream failed, using cache")
		return cached, nil
	}
	if err := p.Cache.UpsertWeather(ctx, fresh); err != nil {
		p.Logger.Warn().Err(err).Msg("weather cache write failed")
	}
	return merge(cached, fresh), nil
}

func merge(a, b []models.WeatherRecord) []models.WeatherRecord {
	byDate := map[string]models.WeatherRecord{}
	for _, r := range a {
		byDate[r.Date] = r
	}
	for _, r := range b {
		byDate[r.Date] = r
	}
	out := make([]models.WeatherRecord, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func daysInRange(from, to string) int {
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return 0
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil || t.Before(f) {
		return 0
	}
	return int(t.Sub(f).Hours()/24) + 1
}
