package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/palmyard/backend/internal/analytics"
	"github.com/palmyard/backend/internal/models"
)

// MockNarrator builds a templated briefing without calling a model. The
// output depends only on its input.
type MockNarrator struct {
	ModelVersion string
}

func (m MockNarrator) Narrate(ctx context.Context, in analytics.InsightContext) (Insight, error) {
	start := time.Now()
	var b strings.Builder

	fmt.Fprintf(&b, "Intake %.0f kg from %d trucks (%.0f%% of the %.0f kg target). ",
		in.KPI.TotalNet, in.KPI.Trips, in.KPI.Progress, in.KPI.Target)
	fmt.Fprintf(&b, "Average BJR %.2f kg/bunch, dwell %.0f min. ", in.KPI.AvgRatio, in.KPI.AvgDwellMinutes)

	if n := len(in.RecentTrend); n >= 2 {
		first, last := in.RecentTrend[0].Total, in.RecentTrend[n-1].Total
		switch {
		case last > first:
			b.WriteString("Daily intake is trending up. ")
		case last < first:
			b.WriteString("Daily intake is trending down. ")
		default:
			b.WriteString("Daily intake is flat. ")
		}
	}

	wet := 0
	for _, w := range in.Weather {
		if w.Date > in.Reference && (w.Condition == models.WeatherRain || w.Condition == models.WeatherStorm) {
			wet++
		}
	}
	if wet > 0 {
		fmt.Fprintf(&b, "Rain expected on %d of the next days; plan for slower harvest transport.", wet)
	} else {
		b.WriteString("No rain expected in the next days.")
	}

	return Insight{
		Text:         b.String(),
		ModelVersion: m.ModelVersion,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}
