package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/palmyard/backend/internal/ai"
	"github.com/palmyard/backend/internal/config"
	"github.com/palmyard/backend/internal/db"
	httpapi "github.com/palmyard/backend/internal/http"
	"github.com/palmyard/backend/internal/service"
	"github.com/palmyard/backend/internal/ticketcsv"
	"github.com/palmyard/backend/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "weighbridge-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate db")
	}

	var narrator ai.Narrator
	switch {
	case cfg.AIURL == "":
		narrator = ai.MockNarrator{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock narrator")
	case cfg.AIAPIKey != "":
		narrator = ai.OpenAICompatNarrator{BaseURL: cfg.AIURL, Model: cfg.AIModel, APIKey: cfg.AIAPIKey, MaxTokens: cfg.AIMaxTokens}
		logger.Info().Str("model", cfg.AIModel).Msg("using chat-completions narrator")
	default:
		narrator = ai.HTTPNarrator{BaseURL: cfg.AIURL}
	}

	var wx weather.Provider
	if cfg.WeatherURL != "" {
		wx = weather.CachedProvider{
			Upstream: &weather.OpenMeteoProvider{BaseURL: cfg.WeatherURL, Lat: cfg.WeatherLat, Lon: cfg.WeatherLon},
			Cache:    store,
			Logger:   logger,
			Clock:    func() time.Time { return time.Now().In(cfg.Location()) },
		}
	} else {
		logger.Info().Msg("weather overlay disabled")
	}

	dash := &service.DashboardService{
		History:  store,
		Weather:  wx,
		Baseline: cfg.DailyTargetKg,
		Jitter:   cfg.ForecastJitter,
		Seed:     cfg.ForecastSeed,
		Location: cfg.Location(),
		Logger:   logger,
	}
	deps := httpapi.Deps{
		DB:            store,
		Announcements: store,
		Imports:       &service.ImportService{Tickets: store, Runs: store, Parser: ticketcsv.NewParser(), Logger: logger},
		Dashboard:     dash,
		Insights:      &service.InsightService{Dashboard: dash, Narrator: narrator, Logger: logger},
	}

	router := httpapi.Router(cfg, deps, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
