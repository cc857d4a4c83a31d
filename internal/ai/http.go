package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/palmyard/backend/internal/analytics"
)

// HTTPNarrator posts the insight context to an in-house insight service.
type HTTPNarrator struct {
	BaseURL string
	Client  *http.Client
}

type insightResponse struct {
	Text         string `json:"text"`
	ModelVersion string `json:"model_version"`
}

func (h HTTPNarrator) Narrate(ctx context.Context, in analytics.InsightContext) (Insight, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 15 * time.Second}
	}

	b, _ := json.Marshal(in)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(h.BaseURL, "/")+"/insight", bytes.NewBuffer(b))
	if err != nil {
		return Insight{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.Client.Do(req)
	if err != nil {
		return Insight{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Insight{}, errors.New("insight service error")
	}

	var r insightResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Insight{}, err
	}
	return Insight{
		Text:         r.Text,
		ModelVersion: r.ModelVersion,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}
