package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/palmyard/backend/internal/metrics"
	"github.com/palmyard/backend/internal/ticketcsv"
)

const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusEmpty   = "EMPTY"
	RunStatusFailed  = "FAILED"
)

type ImportService struct {
	Tickets TicketWriter
	Runs    RunStore
	Parser  ticketcsv.Parser
	Logger  zerolog.Logger
}

type ImportSummary struct {
	RunID      string                       `json:"run_id"`
	Parsed     int                          `json:"parsed"`
	Rows       int                          `json:"rows"`
	Skipped    int                          `json:"skipped"`
	Degraded   int                          `json:"degraded"`
	Duplicates int                          `json:"duplicates"`
	Upserted   int64                        `json:"upserted"`
	Reasons    map[ticketcsv.SkipReason]int `json:"reasons"`
	ElapsedMs  int64                        `json:"elapsed_ms"`
}

// Import parses one CSV batch and merges it into the store. A batch with no
// valid rows returns ticketcsv.ErrEmptyImport and writes nothing.
func (s *ImportService) Import(ctx context.Context, r io.Reader) (ImportSummary, error) {
	start := time.Now()
	runID, err := s.Runs.CreateRun(ctx, RunStatusRunning)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("create import run: %w", err)
	}

	res, parseErr := s.Parser.Parse(r)
	summary := ImportSummary{
		RunID:      runID,
		Parsed:     len(res.Tickets),
		Rows:       res.Rows,
		Skipped:    res.Skipped,
		Degraded:   res.Degraded,
		Duplicates: res.Duplicates,
		Reasons:    res.Reasons,
	}
	log := s.Logger.With().Str("run_id", runID).Logger()

	if parseErr != nil {
		status := RunStatusFailed
		if errors.Is(parseErr, ticketcsv.ErrEmptyImport) {
			status = RunStatusEmpty
		}
		summary.ElapsedMs = time.Since(start).Milliseconds()
		s.finish(ctx, log, runID, status, summary)
		metrics.ImportRows.WithLabelValues("skipped").Add(float64(res.Skipped))
		log.Warn().Err(parseErr).Int("rows", res.Rows).Int("skipped", res.Skipped).Msg("import rejected")
		return summary, parseErr
	}

	upserted, err := s.Tickets.UpsertTickets(ctx, res.Tickets)
	if err != nil {
		summary.ElapsedMs = time.Since(start).Milliseconds()
		s.finish(ctx, log, runID, RunStatusFailed, summary)
		return summary, fmt.Errorf("upsert tickets: %w", err)
	}
	summary.Upserted = upserted
	summary.ElapsedMs = time.Since(start).Milliseconds()
	s.finish(ctx, log, runID, RunStatusSuccess, summary)

	metrics.ImportRows.WithLabelValues("parsed").Add(float64(summary.Parsed))
	metrics.ImportRows.WithLabelValues("skipped").Add(float64(summary.Skipped))
	metrics.ImportRows.WithLabelValues("degraded").Add(float64(summary.Degraded))

	log.Info().
		Int("parsed", summary.Parsed).
		Int("skipped", summary.Skipped).
		Int("degraded", summary.Degraded).
		Int("duplicates", summary.Duplicates).
		Int64("upserted", summary.Upserted).
		Int64("elapsed_ms", summary.ElapsedMs).
		Msg("import finished")
	return summary, nil
}

func (s *ImportService) finish(ctx context.Context, log zerolog.Logger, runID, status string, summary ImportSummary) {
	b, _ := json.Marshal(summary)
	if err := s.Runs.FinishRun(ctx, runID, status, b); err != nil {
		log.Error().Err(err).Str("status", status).Msg("finish import run failed")
	}
}

func (s *ImportService) LatestRun(ctx context.Context) (ImportRunView, error) {
	run, err := s.Runs.GetLatestRun(ctx)
	if err != nil {
		return ImportRunView{}, err
	}
	view := ImportRunView{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Status:     run.Status,
	}
	if len(run.Summary) > 0 {
		var sum ImportSummary
		if err := json.Unmarshal(run.Summary, &sum); err == nil {
			view.Summary = &sum
		}
	}
	return view, nil
}

// ImportRunView is an import run with its summary decoded.
type ImportRunView struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at"`
	Status     string         `json:"status"`
	Summary    *ImportSummary `json:"summary,omitempty"`
}
