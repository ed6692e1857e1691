package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	"approved-premises-workers/internal/common/config"
	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/store/migrations"
)

const envDSN = "APPROVED_PREMISES_DB_URL"

func main() {
	var (
		dsn     = flag.String("dsn", "", "Database URL (defaults to "+envDSN+", then the postgres config)")
		up      = flag.Bool("up", false, "Run all up migrations")
		down    = flag.Bool("down", false, "Run all down migrations")
		steps   = flag.Int("steps", 0, "Number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print current migration version")
		force   = flag.Int("force", -1, "Force set version (use with caution)")
	)
	flag.Parse()

	log := logger.New("info", "console", "stdout")
	defer log.Sync()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	if *dsn == "" {
		*dsn = os.Getenv(envDSN)
	}
	if *dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal("config load failed", zap.Error(err))
		}
		*dsn = cfg.Database.Postgres.GetURL()
	}

	m, err := migrations.New(*dsn)
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil {
			log.Fatal("failed to get version", zap.Error(err))
		}
		log.Info("migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	case forceSet:
		if err := m.Force(*force); err != nil {
			log.Fatal("failed to force version", zap.Error(err))
		}
		log.Info("forced migration version", zap.Int("version", *force))
	case *up:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal("failed to run up migrations", zap.Error(err))
		}
		log.Info("migrations applied")
	case *down:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal("failed to run down migrations", zap.Error(err))
		}
		log.Info("migrations reverted")
	case *steps != 0:
		if err := m.Steps(*steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		log.Info("migration steps applied", zap.Int("steps", *steps))
	default:
		fmt.Println("usage: migrate [-dsn <url>] [-up|-down|-steps N|-version|-force N]")
		flag.PrintDefaults()
	}
}
