package service

import (
	"context"

	"github.com/palmyard/backend/internal/models"
)

// TicketSource loads the full ticket history.
type TicketSource interface {
	ListTickets(ctx context.Context) ([]models.Ticket, error)
}

// TicketWriter merges a batch into the stored history.
type TicketWriter interface {
	UpsertTickets(ctx context.Context, tickets []models.Ticket) (int64, error)
}

// RunStore records import runs.
type RunStore interface {
	CreateRun(ctx context.Context, status string) (string, error)
	FinishRun(ctx context.Context, runID string, status string, summary []byte) error
	GetLatestRun(ctx context.Context) (models.ImportRun, error)
}

// StaticTickets serves a fixed in-memory history. The offline CLI uses it
// in place of the database.
type StaticTickets []models.Ticket

func (s StaticTickets) ListTickets(context.Context) ([]models.Ticket, error) {
	return append([]models.Ticket(nil), s...), nil
}
