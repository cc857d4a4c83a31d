// Command weighctl runs the weighbridge analytics offline and performs
// database maintenance.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/palmyard/backend/internal/analytics"
	"github.com/palmyard/backend/internal/config"
	"github.com/palmyard/backend/internal/db"
	"github.com/palmyard/backend/internal/service"
	"github.com/palmyard/backend/internal/ticketcsv"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "weighctl",
		Short:         "Weighbridge ticket analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(analyzeCmd(), exportCmd(), migrateCmd())
	return cmd
}

// filterFlags are shared by the commands that select tickets.
type filterFlags struct {
	window   string
	start    string
	end      string
	category string
	text     string
	location string
	now      string
}

func (f *filterFlags) register(cmd *cobra.Command, defaultWindow string) {
	cmd.Flags().StringVar(&f.window, "window", defaultWindow, "today|week|month|custom|all")
	cmd.Flags().StringVar(&f.start, "start", "", "custom window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "custom window end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.category, "category", "all", "search field: all|id|plate|location")
	cmd.Flags().StringVar(&f.text, "q", "", "search text")
	cmd.Flags().StringVar(&f.location, "location", "", "location for the location report")
	cmd.Flags().StringVar(&f.now, "now", "", "evaluate as of this day (YYYY-MM-DD)")
}

func (f *filterFlags) query(svc *service.DashboardService) (service.Query, error) {
	q := service.Query{
		Window:   analytics.ParseWindow(f.window, f.start, f.end),
		Search:   analytics.Search{Category: analytics.SearchCategory(f.category), Query: f.text},
		Location: f.location,
	}
	if f.now != "" {
		now, err := svc.ReferenceDay(f.now)
		if err != nil {
			return service.Query{}, fmt.Errorf("invalid --now: %w", err)
		}
		q.Now = now
	}
	return q, nil
}

func logger(cmd *cobra.Command) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		With().Timestamp().Str("service", "weighctl").Logger()
}

type analyzeOutput struct {
	Import    ticketcsv.Result    `json:"import"`
	Dashboard analytics.Dashboard `json:"dashboard"`
}

func analyzeCmd() *cobra.Command {
	var (
		f         filterFlags
		delimiter string
		target    float64
		jitter    float64
		seed      uint64
		horizon   int
		timezone  string
	)

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Print the dashboard for a ticket CSV without a database",
		Long: `Parse a weighbridge ticket CSV and print the full dashboard as JSON.

Use "-" as FILE to read from stdin.

Examples:
  weighctl analyze tickets.csv
  weighctl analyze tickets.csv --window week --now 2024-03-10
  weighctl analyze tickets.csv --window custom --start 2024-03-01 --end 2024-03-15 --location "Blok A"
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeFn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			parser := ticketcsv.NewParser()
			if delimiter != "" {
				parser.Delimiter = []rune(delimiter)[0]
			}
			res, err := parser.Parse(in)
			if err != nil && !errors.Is(err, ticketcsv.ErrEmptyImport) {
				return err
			}
			log := logger(cmd)
			log.Info().Int("rows", res.Rows).Int("skipped", res.Skipped).Int("degraded", res.Degraded).Msg("parsed tickets")

			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("invalid --tz: %w", err)
			}
			svc := &service.DashboardService{
				History:  service.StaticTickets(res.Tickets),
				Baseline: target,
				Jitter:   jitter,
				Seed:     seed,
				Location: loc,
				Logger:   log,
			}
			q, err := f.query(svc)
			if err != nil {
				return err
			}
			q.Horizon = horizon

			d, err := svc.Dashboard(cmd.Context(), q)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(analyzeOutput{Import: res, Dashboard: d})
		},
	}

	f.register(cmd, string(analytics.WindowAll))
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "field delimiter")
	cmd.Flags().Float64Var(&target, "target", analytics.DefaultDailyTarget, "daily intake target in kg")
	cmd.Flags().Float64Var(&jitter, "jitter", 0.1, "forecast jitter (0 disables)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "forecast seed (0 derives one from the data)")
	cmd.Flags().IntVar(&horizon, "horizon", 7, "forecast days")
	cmd.Flags().StringVar(&timezone, "tz", "Asia/Jakarta", "plant timezone")
	return cmd
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return fh, func() { _ = fh.Close() }, nil
}

func openStore(ctx context.Context, databaseURL string) (*db.Store, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, err
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if cfg.DatabaseURL == "" {
		return nil, cfg, errors.New("DATABASE_URL is not set")
	}
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, cfg, err
	}
	return store, cfg, nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func exportCmd() *cobra.Command {
	var (
		f           filterFlags
		out         string
		databaseURL string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored tickets as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			store, cfg, err := openStore(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := &service.DashboardService{History: store, Location: cfg.Location(), Logger: logger(cmd)}
			q, err := f.query(svc)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				fh, err := os.Create(out)
				if err != nil {
					return err
				}
				defer fh.Close()
				w = fh
			}
			return svc.Export(ctx, w, q)
		},
	}

	f.register(cmd, string(analytics.WindowAll))
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "overrides DATABASE_URL")
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			store, _, err := openStore(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			logger(cmd).Info().Msg("schema up to date")
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "overrides DATABASE_URL")
	return cmd
}
