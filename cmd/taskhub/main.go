package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"taskhub/internal/activity"
	"taskhub/internal/cache"
	"taskhub/internal/config"
	"taskhub/internal/identity"
	"taskhub/internal/logging"
	"taskhub/internal/mq"
	"taskhub/internal/server"
	"taskhub/internal/storage/postgres"
	"taskhub/internal/storage/sqlite"
	"taskhub/internal/tracker"
)

// store is what both storage backends provide.
type store interface {
	tracker.Store
	identity.UserStore
	activity.Repository
	io.Closer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	addrFlag := flag.String("addr", cfg.HTTPAddr, "HTTP listen address")
	dbFlag := flag.String("db", cfg.DBPath, "Path to sqlite database file")
	flag.Parse()

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	st, err := openStore(ctx, cfg, *dbFlag, logger)
	if err != nil {
		logger.Fatal("unable to open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer st.Close()

	var dedup server.Deduper
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("redis unavailable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()
		dedup = cache.NewDeduper(rdb, cfg.IdempotencyWindow(), logger)
		logger.Info("idempotency keys enabled", zap.Duration("ttl", cfg.IdempotencyWindow()))
	}

	var publisher activity.Publisher
	if cfg.MQURL != "" {
		producer, err := mq.NewProducer(cfg.MQURL)
		if err != nil {
			logger.Fatal("failed to init publisher", zap.Error(err))
		}
		defer producer.Close()
		publisher = producer
		logger.Info("publishing activity events", zap.String("exchange", mq.ExchangeName))
	}

	auth := identity.NewService(st, identity.NewTokens(cfg.JWTSecret, cfg.TokenTTL()), cfg.BcryptCost, logger)
	coord := tracker.NewService(st, activity.NewLog(st, publisher, logger), logger)
	srv := server.New(auth, coord, dedup, logger)

	httpServer := &http.Server{
		Addr:              *addrFlag,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr), zap.String("driver", cfg.DBDriver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", zap.Error(err))
	}

	logger.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config, dbPath string, logger *zap.Logger) (store, error) {
	if cfg.DBDriver == "postgres" {
		return postgres.Open(ctx, cfg.DatabaseURL, logger)
	}
	return sqlite.Open(dbPath, logger)
}
