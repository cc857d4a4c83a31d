package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/palmyard/backend/internal/models"
)

const dateLayout = "2006-01-02"

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS tickets (
	id           TEXT PRIMARY KEY,
	date         DATE NOT NULL,
	time_in      TEXT NOT NULL DEFAULT '',
	time_out     TEXT NOT NULL DEFAULT '',
	plate_number TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	net_weight   DOUBLE PRECISION NOT NULL DEFAULT 0,
	bunch_count  DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS tickets_date_idx ON tickets (date);
CREATE TABLE IF NOT EXISTS weather (
	date        DATE PRIMARY KEY,
	condition   TEXT NOT NULL,
	rainfall_mm DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS import_runs (
	id          UUID PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	status      TEXT NOT NULL,
	summary     JSONB
);
CREATE TABLE IF NOT EXISTS announcements (
	id         UUID PRIMARY KEY,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL,
	author     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Migrate applies the schema. It is safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// UpsertTickets stages the batch with COPY and merges it by id. The count
// only includes rows that were inserted or actually changed.
func (s *Store) UpsertTickets(ctx context.Context, tickets []models.Ticket) (int64, error) {
	rows := make([][]any, 0, len(tickets))
	for _, t := range tickets {
		d, err := time.Parse(dateLayout, t.Date)
		if err != nil {
			return 0, fmt.Errorf("ticket %s: invalid date %q: %w", t.ID, t.Date, err)
		}
		rows = append(rows, []any{t.ID, d, t.TimeIn, t.TimeOut, t.PlateNumber, t.Location, t.NetWeight, t.BunchCount})
	}

	var changed int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `CREATE TEMP TABLE tickets_stage (
			id TEXT, date DATE, time_in TEXT, time_out TEXT, plate_number TEXT,
			location TEXT, net_weight DOUBLE PRECISION, bunch_count DOUBLE PRECISION
		) ON COMMIT DROP`); err != nil {
			return err
		}
		cols := []string{"id", "date", "time_in", "time_out", "plate_number", "location", "net_weight", "bunch_count"}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"tickets_stage"}, cols, pgx.CopyFromRows(rows)); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO tickets (id, date, time_in, time_out, plate_number, location, net_weight, bunch_count)
			SELECT id, date, time_in, time_out, plate_number, location, net_weight, bunch_count FROM tickets_stage
			ON CONFLICT (id) DO UPDATE SET
				date = EXCLUDED.date,
				time_in = EXCLUDED.time_in,
				time_out = EXCLUDED.time_out,
				plate_number = EXCLUDED.plate_number,
				location = EXCLUDED.location,
				net_weight = EXCLUDED.net_weight,
				bunch_count = EXCLUDED.bunch_count,
				updated_at = NOW()
			WHERE (tickets.date, tickets.time_in, tickets.time_out, tickets.plate_number, tickets.location, tickets.net_weight, tickets.bunch_count)
				IS DISTINCT FROM
				(EXCLUDED.date, EXCLUDED.time_in, EXCLUDED.time_out, EXCLUDED.plate_number, EXCLUDED.location, EXCLUDED.net_weight, EXCLUDED.bunch_count)
		`)
		if err != nil {
			return err
		}
		changed = tag.RowsAffected()
		return nil
	})
	return changed, err
}

func (s *Store) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, to_char(date, 'YYYY-MM-DD'), time_in, time_out, plate_number, location, net_weight, bunch_count
		FROM tickets
		ORDER BY date ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.ID, &t.Date, &t.TimeIn, &t.TimeOut, &t.PlateNumber, &t.Location, &t.NetWeight, &t.BunchCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListWeather(ctx context.Context, from, to string) ([]models.WeatherRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'), condition, rainfall_mm
		FROM weather
		WHERE date BETWEEN $1::date AND $2::date
		ORDER BY date ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WeatherRecord
	for rows.Next() {
		var w models.WeatherRecord
		var cond string
		if err := rows.Scan(&w.Date, &cond, &w.RainfallMM); err != nil {
			return nil, err
		}
		w.Condition = models.WeatherCondition(cond)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) UpsertWeather(ctx context.Context, records []models.WeatherRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO weather (date, condition, rainfall_mm) VALUES ($1::date, $2, $3)
			ON CONFLICT (date) DO UPDATE SET condition = EXCLUDED.condition, rainfall_mm = EXCLUDED.rainfall_mm
		`, r.Date, string(r.Condition), r.RainfallMM)
	}
	return s.Pool.SendBatch(ctx, batch).Close()
}

func (s *Store) CreateRun(ctx context.Context, status string) (string, error) {
	id := uuid.New().String()
	_, err := s.Pool.Exec(ctx, `INSERT INTO import_runs (id, status, started_at) VALUES ($1, $2, NOW())`, id, status)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE import_runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (models.ImportRun, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id::text, started_at, finished_at, status, summary FROM import_runs ORDER BY started_at DESC LIMIT 1`)
	var r models.ImportRun
	if err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Summary); err != nil {
		return models.ImportRun{}, err
	}
	return r, nil
}

func (s *Store) ListAnnouncements(ctx context.Context, limit int) ([]models.Announcement, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx, `SELECT id::text, title, body, author, created_at FROM announcements ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Announcement
	for rows.Next() {
		var a models.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.Author, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAnnouncement(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	a.ID = uuid.New().String()
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO announcements (id, title, body, author) VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, a.ID, a.Title, a.Body, a.Author).Scan(&a.CreatedAt)
	return a, err
}

// DeleteAnnouncement returns pgx.ErrNoRows when nothing was deleted.
func (s *Store) DeleteAnnouncement(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return pgx.ErrNoRows
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
