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

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"fsanano/checkout/internal/auth"
	"fsanano/checkout/internal/config"
	"fsanano/checkout/internal/handler"
	"fsanano/checkout/internal/repository"
	"fsanano/checkout/internal/service"
	"fsanano/checkout/pkg/logging"
)

type stores struct {
	users  service.UserStore
	checks service.CheckStore
	close  func()
}

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server exiting")
}

func run(ctx context.Context, cfg *config.Config) error {
	// 2. Setup storage
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	// 3. Setup logic
	authService := service.NewAuthService(st.users, auth.NewJWTManager(cfg.Auth.SecretKey, cfg.Auth.TokenExpiry))
	checkService := service.NewCheckService(st.checks)
	h := handler.NewHandler(authService, checkService, cfg.HostURL)

	// 4. Setup server
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Run server with graceful shutdown
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "port", cfg.ServerPort, "storage", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StorageDriver == config.StorageMemory {
		mem := repository.NewMemoryStore()
		slog.Warn("using in-memory storage; data is lost on restart")
		return &stores{users: mem, checks: mem, close: func() {}}, nil
	}

	if cfg.MigrateOnStart {
		if err := repository.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		slog.Info("database migrations applied")
	}

	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, err
	}
	slog.Info("connected to database")

	return &stores{
		users:  repository.NewUserRepository(dbPool),
		checks: repository.NewCheckRepository(dbPool),
		close:  dbPool.Close,
	}, nil
}
