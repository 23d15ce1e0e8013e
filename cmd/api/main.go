// Package main is the entry point for the trip ledger API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/trip-ledger/internal/ai"
	"github.com/pkordes/trip-ledger/internal/config"
	"github.com/pkordes/trip-ledger/internal/handler"
	"github.com/pkordes/trip-ledger/internal/middleware"
	"github.com/pkordes/trip-ledger/internal/repo"
	"github.com/pkordes/trip-ledger/internal/service"
	"github.com/pkordes/trip-ledger/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := migrate(ctx, pool); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// --- Store ------------------------------------------------------------
	// The last saved state is loaded once; every later commit is written
	// back through the debounced saver.
	snapshots := repo.NewSnapshotRepo(repo.NewKV(pool), cfg.Location, logger)
	initial, err := snapshots.Load(ctx)
	if err != nil {
		slog.Error("failed to load saved state", "error", err)
		os.Exit(1)
	}
	saver := service.NewSaver(snapshots, cfg.SaveDebounce, logger)
	store := service.NewEventStore(service.StoreConfig{
		DefaultCurrency: cfg.DefaultCurrency,
		Location:        cfg.Location,
	}, saver, logger)
	store.Seed(initial)
	slog.Info("state loaded", "events", len(initial.Events), "rates", len(initial.Rates))

	// --- Generative services ----------------------------------------------
	guard := ai.DefaultGuardConfig()
	if cfg.AIRatePerSecond > 0 {
		guard.RatePerSecond = cfg.AIRatePerSecond
	}
	gen, err := ai.New(ctx, ai.ProviderConfig{
		Provider:     cfg.AIProvider,
		GeminiAPIKey: cfg.GeminiAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		Model:        cfg.AIModel,
		Guard:        guard,
	}, logger)
	if err != nil {
		slog.Error("failed to create text generator", "error", err)
		os.Exit(1)
	}
	var textGen service.TextGenerator
	if gen != nil {
		textGen = gen
	} else {
		slog.Warn("no text generator configured; suggestions and tips are disabled", "provider", cfg.AIProvider)
	}
	images := ai.NewImageLookup(cfg.ImageLookupURL, &http.Client{Timeout: 10 * time.Second}, logger)

	// --- Services ---------------------------------------------------------
	codec := service.NewBackupCodec(cfg.DefaultCurrency, cfg.Location, nil)
	enricher := service.NewEnricher(store, textGen, images, logger)
	server := handler.NewServer(handler.Services{
		Events:   store,
		Backup:   service.NewBackupService(store, codec, logger),
		Planner:  service.NewPlanner(store, textGen, logger),
		Enricher: enricher,
		Export:   service.NewExportService(store, cfg.BaseCurrency),
	}, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Metrics →
	// Recoverer → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(middleware.NewMetricsHandler())
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	server.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout leaves room for a guarded suggestion request.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	// Background lookups may still commit; wait for them before the last write.
	enricher.Wait()
	if err := saver.Flush(shutdownCtx); err != nil {
		slog.Error("final save failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies every pending migration embedded in the binary.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "duration", res.Duration)
	}
	return nil
}
