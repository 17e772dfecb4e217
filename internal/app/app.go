// Package app initializes and runs the user API service.
// It configures logging, storage, metrics and routing, optionally starts
// the gRPC server, and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/userapi/internal/config"
	"github.com/patric-chuzhbe/userapi/internal/db/jsondb"
	"github.com/patric-chuzhbe/userapi/internal/db/memorystorage"
	"github.com/patric-chuzhbe/userapi/internal/db/postgresdb"
	"github.com/patric-chuzhbe/userapi/internal/db/sqlitedb"
	"github.com/patric-chuzhbe/userapi/internal/grpcserver"
	"github.com/patric-chuzhbe/userapi/internal/ipchecker"
	"github.com/patric-chuzhbe/userapi/internal/logger"
	"github.com/patric-chuzhbe/userapi/internal/metrics"
	"github.com/patric-chuzhbe/userapi/internal/models"
	"github.com/patric-chuzhbe/userapi/internal/router"
	"github.com/patric-chuzhbe/userapi/internal/service"
	"github.com/patric-chuzhbe/userapi/internal/token"
)

const shutdownTimeout = 10 * time.Second

type storage interface {
	service.Storage
	Close() error
}

// App holds the configuration, storage and handlers of a running service.
type App struct {
	cfg         *config.Config
	db          storage
	httpHandler http.Handler
	grpcHandler *grpcserver.UserHandler
}

// New loads the configuration, initializes the logger, opens the configured
// storage and builds the HTTP and gRPC handlers.
func New(configOptions ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(configOptions...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	trustedSubnet, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	svc := service.New(app.db)
	tokens := token.New()

	app.httpHandler = router.New(
		svc,
		tokens,
		router.WithErrorRedirects(app.cfg.ErrorRedirects),
		router.WithTokenHeader(app.cfg.TokenHeader),
		router.WithMetrics(metrics.New()),
		router.WithInternalGuard(trustedSubnet.Middleware),
	)
	app.grpcHandler = grpcserver.NewUserHandler(svc, tokens, app.cfg.TokenHeader)

	return app, nil
}

// Handler returns the HTTP handler serving the whole API.
func (a *App) Handler() http.Handler {
	return a.httpHandler
}

// Run starts the servers and blocks until SIGINT or SIGTERM, then shuts
// everything down.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	logger.Log.Infow("server running", "RunAddr", a.cfg.RunAddr, "GRPCAddr", a.cfg.GRPCAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 2)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	var grpcServer *grpc.Server
	if a.cfg.GRPCAddr != "" {
		var lis net.Listener
		var err error
		grpcServer, lis, err = grpcserver.NewGRPCServer(a.cfg.GRPCAddr, a.grpcHandler)
		if err != nil {
			_ = server.Close()
			if closeErr := a.db.Close(); closeErr != nil {
				logger.Log.Errorw("Error calling the `a.db.Close()`", zap.Error(closeErr))
			}
			return fmt.Errorf("grpc listen error: %w", err)
		}
		go func() {
			serverErrCh <- grpcServer.Serve(lis)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if grpcServer != nil {
			grpcServer.GracefulStop()
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		if grpcServer != nil {
			grpcServer.Stop()
		}
		_ = server.Close()
		if closeErr := a.db.Close(); closeErr != nil {
			logger.Log.Errorw("Error calling the `a.db.Close()`", zap.Error(closeErr))
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.SQLitePath != "" {
		return models.StorageTypeSQLite
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeSQLite:
		return sqlitedb.New(cfg.SQLitePath)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
