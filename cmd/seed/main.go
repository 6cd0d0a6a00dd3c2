package main

import (
	"context"
	"flag"
	"io"
	"os"

	"go.uber.org/zap"

	"taskhub/internal/activity"
	"taskhub/internal/config"
	"taskhub/internal/identity"
	"taskhub/internal/logging"
	"taskhub/internal/storage/postgres"
	"taskhub/internal/storage/sqlite"
	"taskhub/internal/tracker"
)

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

	fileFlag := flag.String("file", "cmd/seed/testdata/fixture.yaml", "YAML fixture to load")
	dbFlag := flag.String("db", cfg.DBPath, "Path to sqlite database file")
	flag.Parse()

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	f, err := os.Open(*fileFlag)
	if err != nil {
		logger.Fatal("unable to open fixture", zap.String("file", *fileFlag), zap.Error(err))
	}
	fx, err := ParseFixture(f)
	_ = f.Close()
	if err != nil {
		logger.Fatal("invalid fixture", zap.String("file", *fileFlag), zap.Error(err))
	}

	ctx := context.Background()
	var st store
	if cfg.DBDriver == "postgres" {
		st, err = postgres.Open(ctx, cfg.DatabaseURL, logger)
	} else {
		st, err = sqlite.Open(*dbFlag, logger)
	}
	if err != nil {
		logger.Fatal("unable to open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer st.Close()

	auth := identity.NewService(st, identity.NewTokens(cfg.JWTSecret, cfg.TokenTTL()), cfg.BcryptCost, logger)
	coord := tracker.NewService(st, activity.NewLog(st, nil, logger), logger)

	sum, err := NewSeeder(auth, st, coord, logger).Apply(ctx, fx)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("seed complete",
		zap.Int("users", sum.Users),
		zap.Int("projects", sum.Projects),
		zap.Int("tasks", sum.Tasks),
	)
}
