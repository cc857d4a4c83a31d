package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/palmyard/backend/internal/models"
)

// OpenMeteoProvider fetches daily weather codes and precipitation for one
// coordinate. Requests are spaced by MinInterval and past ranges are cached.
type OpenMeteoProvider struct {
	BaseURL     string
	Lat         float64
	Lon         float64
	MinInterval time.Duration
	Client      *http.Client

	mu        sync.Mutex
	lastReqAt time.Time
	cache     map[string][]models.WeatherRecord
}

type openMeteoResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		WeatherCode      []*int     `json:"weather_code"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) Daily(ctx context.Context, from, to string) ([]models.WeatherRecord, error) {
	key := from + "|" + to

	p.mu.Lock()
	if p.Client == nil {
		p.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if p.BaseURL == "" {
		p.BaseURL = "https://api.open-meteo.com"
	}
	if p.MinInterval <= 0 {
		p.MinInterval = time.Second
	}
	if p.cache == nil {
		p.cache = map[string][]models.WeatherRecord{}
	}
	if cached, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	sleepFor := time.Until(p.lastReqAt.Add(p.MinInterval))
	if sleepFor > 0 {
		p.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleepFor):
		}
		p.mu.Lock()
	}
	p.lastReqAt = time.Now()
	p.mu.Unlock()

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(p.Lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(p.Lon, 'f', 4, 64))
	q.Set("daily", "weather_code,precipitation_sum")
	q.Set("timezone", "auto")
	q.Set("start_date", from)
	q.Set("end_date", to)
	endpoint := fmt.Sprintf("%s/v1/forecast?%s", p.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("open-meteo http error: %s", resp.Status)
	}

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	records, err := parseOpenMeteo(body)
	if err != nil {
		return nil, err
	}

	// Ranges reaching today hold forecasts and are not memoised.
	if to < time.Now().Format(dateLayout) {
		p.mu.Lock()
		p.cache[key] = records
		p.mu.Unlock()
	}
	return records, nil
}

func parseOpenMeteo(body openMeteoResponse) ([]models.WeatherRecord, error) {
	if len(body.Daily.Time) == 0 {
		return nil, ErrNotFound
	}
	out := make([]models.WeatherRecord, 0, len(body.Daily.Time))
	for i, date := range body.Daily.Time {
		rec := models.WeatherRecord{Date: date, Condition: models.WeatherUnknown}
		if i < len(body.Daily.WeatherCode) && body.Daily.WeatherCode[i] != nil {
			rec.Condition = ConditionFromCode(*body.Daily.WeatherCode[i])
		}
		if i < len(body.Daily.PrecipitationSum) && body.Daily.PrecipitationSum[i] != nil {
			rec.RainfallMM = *body.Daily.PrecipitationSum[i]
		}
		out = append(out, rec)
	}
	return out, nil
}
