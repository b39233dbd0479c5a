package app

import (
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/debpulse/config"
	"github.com/guttosm/debpulse/internal/api"
	"github.com/guttosm/debpulse/internal/calendar"
	"github.com/guttosm/debpulse/internal/fetcher"
	"github.com/guttosm/debpulse/internal/ingestion"
	"github.com/guttosm/debpulse/internal/logger"
	"github.com/guttosm/debpulse/internal/output"
	"github.com/guttosm/debpulse/internal/service"
	"github.com/guttosm/debpulse/internal/storage"
)

// InitializeApp wires the read API: Postgres → repository → service →
// handler → router, plus the health probes. The returned cleanup closes the
// database pool.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	repo := storage.NewPricesRepository(db)
	svc := service.NewPricesService(repo)
	handler := api.NewHandler(svc)

	router := api.NewRouter(handler, api.RouterOptions{})
	api.NewHealthHandler(map[string]api.Check{"postgres": db.PingContext}).Register(router)

	cleanup := func() {
		_ = db.Close()
	}

	return router, cleanup, nil
}

// NewBatch builds the batch Processor described by cfg.
//
// The Postgres sink is attached only when cfg.Postgres.Enabled is set; a
// connection failure is then an error rather than a silent CSV-only run.
// The returned cleanup is never nil.
func NewBatch(cfg config.Config) (*ingestion.Processor, func(), error) {
	cleanup := func() {}

	isBusinessDay, err := calendar.ByName(cfg.Batch.Calendar)
	if err != nil {
		return nil, cleanup, err
	}
	policy, err := output.ParseHeaderPolicy(cfg.Batch.OutputHeader)
	if err != nil {
		return nil, cleanup, err
	}

	client := fetcher.New(nil, fetcher.Options{
		Timeout:        cfg.Fetch.Timeout,
		MaxAttempts:    cfg.Fetch.MaxAttempts,
		InitialBackoff: cfg.Fetch.InitialBackoff,
	})

	var (
		sink ingestion.PriceSink
		db   *sql.DB
	)
	if cfg.Postgres.Enabled {
		db, err = postgresOpener(cfg)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		cleanup = func() { _ = db.Close() }
		sink = storage.NewPricesRepository(db)
		logger.L().Info().Str("db", cfg.Postgres.DBName).Msg("postgres sink enabled")
	}

	proc, err := ingestion.NewProcessor(ingestion.Options{
		BaseURL:       cfg.Source.BaseURL,
		FilePrefix:    cfg.Source.FilePrefix,
		DownloadDir:   cfg.Batch.DownloadDir,
		OutputFile:    cfg.Batch.OutputFile,
		HeaderPolicy:  policy,
		IsBusinessDay: isBusinessDay,
	}, client, sink)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	return proc, cleanup, nil
}
