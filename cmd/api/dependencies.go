package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FACorreiaa/diviflow/internal/domain/auth"
	"github.com/FACorreiaa/diviflow/internal/domain/dividends/extract"
	"github.com/FACorreiaa/diviflow/internal/domain/dividends/handler"
	"github.com/FACorreiaa/diviflow/internal/domain/dividends/repository"
	"github.com/FACorreiaa/diviflow/internal/domain/dividends/service"
	"github.com/FACorreiaa/diviflow/pkg/config"
	"github.com/FACorreiaa/diviflow/pkg/db"
	"github.com/FACorreiaa/diviflow/pkg/pdftext"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	DividendRepo repository.DividendRepository

	// Services
	TokenManager    auth.TokenManager
	DividendService *service.DividendService

	// Handlers
	Metrics         *handler.Metrics
	DividendHandler *handler.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.New(ctx, db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() {
	d.DividendRepo = repository.NewPostgresDividendRepository(d.DB.Pool, d.Logger)

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices() error {
	jwtSecret := []byte(d.Config.Auth.JWTSecret)
	if len(jwtSecret) == 0 {
		return fmt.Errorf("jwt secret is required")
	}
	d.TokenManager = auth.NewTokenManager(jwtSecret, d.Config.Auth.AccessTokenTTL)

	recoverer := pdftext.NewReader(d.Logger)
	engine := extract.NewEngine(nil, extract.DefaultOptions(), d.Logger)

	d.DividendService = service.NewDividendService(
		d.DividendRepo,
		recoverer,
		engine,
		d.Config.Upload.RecoveryTimeout,
		d.Logger,
	)

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() {
	d.Metrics = handler.NewMetrics(prometheus.DefaultRegisterer)
	d.DividendHandler = handler.NewHandler(
		d.DividendService,
		d.Config.Upload.MaxDocumentBytes,
		d.Metrics,
		d.Logger,
	)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
