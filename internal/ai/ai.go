package ai

import (
	"context"

	"github.com/palmyard/backend/internal/analytics"
)

// Narrator turns aggregated numbers into a short human-readable briefing.
type Narrator interface {
	Narrate(ctx context.Context, in analytics.InsightContext) (Insight, error)
}

type Insight struct {
	Text         string `json:"text"`
	ModelVersion string `json:"model_version"`
	LatencyMs    int64  `json:"latency_ms"`
}
