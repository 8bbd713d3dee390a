package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/open2fa/console/adapters"
	adaptermongo "github.com/open2fa/console/adapters/mongo"
	"github.com/open2fa/console/domain/entities"
	"github.com/open2fa/console/internal/api"
	"github.com/open2fa/console/internal/config"
	"github.com/open2fa/console/internal/otp"
	"github.com/open2fa/console/repository"
	"github.com/open2fa/console/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	ctx := context.Background()

	// Initialize snapshot storage
	store, cleanup, err := newSnapshotStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize snapshot store", zap.Error(err))
	}
	defer cleanup()

	// Initialize core services
	provisioner := otp.NewProvisioner(logger)
	registry := usecase.NewRegistry(ctx, store, provisioner, logger)
	sessions := usecase.NewSessions(ctx, configuredUsers(cfg), store, logger)
	console := usecase.NewConsole(sessions, registry, logger)

	// Initialize API routes
	api.InitRoutes(e, console, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Open2FA console started",
		zap.String("port", cfg.Port),
		zap.String("storage_driver", cfg.StorageDriver))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newSnapshotStore builds the configured snapshot backend and returns a
// cleanup function releasing its resources.
func newSnapshotStore(cfg config.Config, logger *zap.Logger) (repository.SnapshotStore, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory snapshot store, state will not survive restarts")
		return adapters.NewMemorySnapshotStore(), func() {}, nil
	case config.DriverMongo:
		client, err := adaptermongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			client.Close(ctx)
		}
		return adapters.NewMongoSnapshotStore(client.Database, logger), cleanup, nil
	default:
		store, err := adapters.NewSQLiteSnapshotStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}

// configuredUsers returns the fixed user set with any configured password
// overrides applied.
func configuredUsers(cfg config.Config) []entities.User {
	users := usecase.DefaultUsers()
	for i := range users {
		switch {
		case users[i].Role == entities.RoleAdmin && cfg.AdminPassword != "":
			users[i].Password = cfg.AdminPassword
		case users[i].Role == entities.RoleUser && cfg.UserPassword != "":
			users[i].Password = cfg.UserPassword
		}
	}
	return users
}
