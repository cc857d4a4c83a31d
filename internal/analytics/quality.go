package analytics

import (
	"sort"

	"github.com/samber/lo"

	"github.com/palmyard/backend/internal/models"
)

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
)

const (
	gradeAThreshold = 20.0
	gradeBThreshold = 10.0

	qualityLeaderboardSize = 5
)

// Ratio is net weight per bunch (BJR); zero bunches yields zero.
func Ratio(t models.Ticket) float64 {
	return safeDiv(t.NetWeight, t.BunchCount)
}

func GradeFor(ratio float64) Grade {
	switch {
	case ratio >= gradeAThreshold:
		return GradeA
	case ratio >= gradeBThreshold:
		return GradeB
	default:
		return GradeC
	}
}

// QualityRecord is one point of the weight/ratio scatter. Ungraded marks a
// ticket without a bunch count; it still carries grade C.
type QualityRecord struct {
	ID          string  `json:"id"`
	PlateNumber string  `json:"plate_number"`
	Location    string  `json:"location"`
	NetWeight   float64 `json:"net_weight"`
	Ratio       float64 `json:"ratio"`
	Grade       Grade   `json:"grade"`
	Ungraded    bool    `json:"ungraded"`
}

type GradeCounts struct {
	A        int `json:"A"`
	B        int `json:"B"`
	C        int `json:"C"`
	Ungraded int `json:"ungraded"`
}

type LocationAggregate struct {
	Location string  `json:"location"`
	TotalNet float64 `json:"total_net"`
	AvgRatio float64 `json:"avg_ratio"`
	Trips    int     `json:"trips"`
}

type Quality struct {
	Counts      GradeCounts         `json:"counts"`
	Records     []QualityRecord     `json:"records"`
	Leaderboard []LocationAggregate `json:"leaderboard"`
}

func GradeTickets(tickets []models.Ticket) Quality {
	q := Quality{Records: make([]QualityRecord, 0, len(tickets))}
	for _, t := range tickets {
		ratio := Ratio(t)
		rec := QualityRecord{
			ID:          t.ID,
			PlateNumber: t.PlateNumber,
			Location:    t.Location,
			NetWeight:   t.NetWeight,
			Ratio:       ratio,
			Grade:       GradeFor(ratio),
			Ungraded:    t.BunchCount == 0,
		}
		switch rec.Grade {
		case GradeA:
			q.Counts.A++
		case GradeB:
			q.Counts.B++
		default:
			q.Counts.C++
		}
		if rec.Ungraded {
			q.Counts.Ungraded++
		}
		q.Records = append(q.Records, rec)
	}

	aggs := LocationAggregates(tickets)
	if len(aggs) > qualityLeaderboardSize {
		aggs = aggs[:qualityLeaderboardSize]
	}
	q.Leaderboard = aggs
	return q
}

// LocationAggregates groups tickets per location, ranked by mean per-ticket
// ratio descending.
func LocationAggregates(tickets []models.Ticket) []LocationAggregate {
	groups := lo.GroupBy(tickets, func(t models.Ticket) string { return t.Location })
	out := make([]LocationAggregate, 0, len(groups))
	for loc, ts := range groups {
		ratioSum := lo.SumBy(ts, Ratio)
		out = append(out, LocationAggregate{
			Location: loc,
			TotalNet: lo.SumBy(ts, func(t models.Ticket) float64 { return t.NetWeight }),
			AvgRatio: ratioSum / float64(len(ts)),
			Trips:    len(ts),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgRatio == out[j].AvgRatio {
			return out[i].Location < out[j].Location
		}
		return out[i].AvgRatio > out[j].AvgRatio
	})
	return out
}
