package main

import (
	"context"
	"fmt"
	"os"

	"storefront/backend/internal/config"
	authdomain "storefront/backend/internal/domain/auth"
	categorydomain "storefront/backend/internal/domain/category"
	productdomain "storefront/backend/internal/domain/product"
	"storefront/backend/internal/infrastructure/memory"
	"storefront/backend/internal/infrastructure/postgres"
	"storefront/backend/internal/logging"

	"github.com/sirupsen/logrus"
)

// repositories is the storage backend selected by STORE_DRIVER.
type repositories struct {
	users      authdomain.UserRepository
	products   productdomain.Repository
	categories categorydomain.Repository
	db         *postgres.Database
}

func (r *repositories) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// loadConfig reads the environment and applies command line overrides.
func loadConfig() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if portFlag != "" {
		cfg.HTTPPort = portFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	return cfg, logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout), nil
}

// openPostgres connects and brings the schema up to date.
func openPostgres(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*postgres.Database, error) {
	if cfg.StoreDriver != config.DriverPostgres {
		return nil, fmt.Errorf("STORE_DRIVER=%s has no database to operate on", cfg.StoreDriver)
	}
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run database migrations: %w", err)
	}
	logger.Debug("database migrations applied")
	return db, nil
}

func openRepositories(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*repositories, error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		store := memory.New()
		return &repositories{
			users:      store.Users(),
			products:   store.Products(),
			categories: store.Categories(),
		}, nil
	}

	db, err := openPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &repositories{
		users:      postgres.NewUserRepository(db.Pool),
		products:   postgres.NewProductRepository(db.Pool),
		categories: postgres.NewCategoryRepository(db.Pool),
		db:         db,
	}, nil
}
