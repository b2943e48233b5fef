package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"storefront/backend/internal/httpserver"
	"storefront/backend/internal/infrastructure/password"
	"storefront/backend/internal/infrastructure/token"
	"storefront/backend/internal/telemetry"
	authusecase "storefront/backend/internal/usecase/auth"
	categoryusecase "storefront/backend/internal/usecase/category"
	productusecase "storefront/backend/internal/usecase/product"
	userusecase "storefront/backend/internal/usecase/user"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: "storefront-backend",
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		logger.WithError(err).Warn("tracing disabled")
	}

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.Close()

	if cfg.JWTExpiry == 0 {
		logger.Warn("JWT_EXPIRY=0: issued tokens never expire")
	}
	tokenManager, err := token.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}
	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	if hasher.Cost() != cfg.BcryptCost {
		logger.WithField("cost", hasher.Cost()).Warn("BCRYPT_COST out of range, using default")
	}

	services := httpserver.Services{
		Auth:       authusecase.NewService(repos.users, hasher, tokenManager),
		Users:      userusecase.NewService(repos.users, hasher),
		Products:   productusecase.NewService(repos.products, repos.categories),
		Categories: categoryusecase.NewService(repos.categories),
	}

	var metrics *httpserver.Metrics
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = httpserver.NewMetrics(registry)
	}

	server := httpserver.NewServer(cfg, services, logger, metrics)
	logger.WithField("addr", server.Addr()).WithField("store", cfg.StoreDriver).Info("HTTP server listening")

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("graceful shutdown completed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("tracer shutdown failed")
	}
	return nil
}
