package cmd

import (
	"database/sql"
	"fmt"

	"github.com/steamsync/internal/config"
	"github.com/steamsync/internal/database"
	"github.com/steamsync/internal/games"
	"github.com/steamsync/internal/retry"
	"github.com/steamsync/internal/reviews"
	"github.com/steamsync/internal/steam"
	"github.com/steamsync/internal/sync"
)

// app holds the wired service graph shared by the CLI commands.
type app struct {
	cfg          *config.Config
	db           *sql.DB
	databaseURL  string
	games        *games.Service
	reviews      *reviews.Service
	steam        *steam.Client
	orchestrator *sync.Orchestrator
}

func buildApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbURL, err := database.URL(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	gameSvc := games.NewService(games.NewPostgresStore(db))
	reviewStore := reviews.NewPostgresStore(db, cfg.Database.BatchSize)
	reviewSvc := reviews.NewService(reviewStore, gameSvc)

	exec, err := retry.NewExecutor(cfg.RetryConfig())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid backoff configuration: %w", err)
	}

	steamClient := steam.NewClient(steam.Config{
		BaseURL:        cfg.Steam.BaseURL,
		PageSize:       cfg.Steam.PageSize,
		RequestsPerMin: cfg.Steam.RequestsPerMin,
	}, exec)

	engine := sync.NewEngine(steamClient, reviewStore)

	return &app{
		cfg:          cfg,
		db:           db,
		databaseURL:  dbURL,
		games:        gameSvc,
		reviews:      reviewSvc,
		steam:        steamClient,
		orchestrator: sync.NewOrchestrator(gameSvc, engine),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}
