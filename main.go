package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/bowlmetrics/server/internal/cache"
	"github.com/bowlmetrics/server/internal/core"
	"github.com/bowlmetrics/server/internal/menu"
	"github.com/bowlmetrics/server/internal/model"
	"github.com/bowlmetrics/server/internal/report"
	"github.com/bowlmetrics/server/internal/store"
	logx "github.com/bowlmetrics/server/pkg/logger"
	pkgredis "github.com/bowlmetrics/server/pkg/redis"
)

// AppConfig defines every configurable parameter of the CLI, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`

	// Storage
	DBPath      string `envconfig:"DB_PATH" default:"data/db/ichef.db"`
	CatalogPath string `envconfig:"CATALOG_PATH"`
	RawDir      string `envconfig:"RAW_DIR" default:"data/ichef/raw"`

	// Report cache, disabled when REDIS_URL is empty
	Redis          pkgredis.Config
	ReportCacheTTL time.Duration `envconfig:"REPORT_CACHE_TTL" default:"24h"`
}

// app holds what every subcommand needs once configuration is resolved.
type app struct {
	cfg     AppConfig
	catalog *menu.Catalog
	store   *store.Store
	reports *report.Service
	closers []func() error
}

func loadConfig() AppConfig {
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}
	return cfg
}

func newApp(ctx context.Context, cfg AppConfig) (*app, error) {
	a := &app{cfg: cfg}

	catalog, err := menu.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	a.catalog = catalog

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.closers = append(a.closers, st.Close)
	logx.Debug().Str("db", st.Path()).Msg("order store opened")

	var reports model.ReportCache
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			// reports still work without the cache
			logx.Warn().Err(err).Msg("redis unavailable, report cache disabled")
		} else {
			reports = cache.NewRedisReportCache(rdb, cfg.ReportCacheTTL)
			a.closers = append(a.closers, rdb.Close)
			logx.Debug().Dur("ttl", cfg.ReportCacheTTL).Msg("report cache enabled")
		}
	}

	a.reports = report.NewService(st, reports, catalog, report.DefaultSettings())
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logx.Warn().Err(err).Msg("close failed")
		}
	}
}

func run(cfg AppConfig) error {
	c := &cli{cfg: cfg}
	defer c.Close()
	return newRootCmd(c).ExecuteContext(context.Background())
}

func main() {
	// bootstrap logger so config errors are readable
	logx.Init()

	cfg := loadConfig()
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})

	if err := run(cfg); err != nil {
		logx.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
