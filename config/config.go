// Package config reads the storage settings of a go-records deployment from
// the environment and opens the matching driver.
package config

import (
	"context"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-records/adapter/mongostore"
	"github.com/goliatone/go-records/adapter/sqlitestore"
	"github.com/goliatone/go-records/pkg/types"
	"github.com/goliatone/go-records/store"
)

// EnvPrefix is prepended to every variable Load reads.
const EnvPrefix = "RECORDS_"

const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

type Config struct {
	Backend    string `env:"BACKEND" envDefault:"mongo"`
	Collection string `env:"COLLECTION" envDefault:"activities"`
	Mongo      Mongo  `envPrefix:"MONGO_"`
	SQLite     SQLite `envPrefix:"SQLITE_"`
	Cache      Cache  `envPrefix:"CACHE_"`
}

type Mongo struct {
	URI                    string        `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database               string        `env:"DATABASE" envDefault:"records"`
	MaxPoolSize            uint64        `env:"MAX_POOL_SIZE" envDefault:"100"`
	ServerSelectionTimeout time.Duration `env:"SERVER_SELECTION_TIMEOUT" envDefault:"10s"`
}

type SQLite struct {
	DSN string `env:"DSN" envDefault:"file:records.db?_busy_timeout=5000"`
}

// Cache configures the activity count cache. A zero size disables it.
type Cache struct {
	Size int           `env:"SIZE" envDefault:"0"`
	TTL  time.Duration `env:"TTL" envDefault:"30s"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	conf, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix: EnvPrefix,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "go-records: invalid environment configuration")
	}
	conf.Backend = strings.ToLower(strings.TrimSpace(conf.Backend))
	return &conf, nil
}

// Closer releases the resources held by an opened driver.
type Closer func(context.Context) error

// Open connects the backend selected by cfg. The returned closer must be
// called once the driver is no longer used.
func Open(ctx context.Context, cfg *Config, logger types.Logger) (store.Driver, Closer, error) {
	if cfg == nil {
		return nil, nil, goerrors.New("go-records: configuration required", goerrors.CategoryValidation)
	}
	if logger == nil {
		logger = types.NopLogger{}
	}

	switch cfg.Backend {
	case BackendMongo:
		driver, err := mongostore.Connect(ctx, mongostore.ConnectConfig{
			URI:                    cfg.Mongo.URI,
			Database:               cfg.Mongo.Database,
			MaxPoolSize:            cfg.Mongo.MaxPoolSize,
			ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
			Logger:                 logger,
		})
		if err != nil {
			return nil, nil, goerrors.Wrap(err, goerrors.CategoryExternal, "go-records: mongo connect failed")
		}
		if err := driver.EnsureIndexes(ctx, cfg.Collection); err != nil {
			logger.Error("go-records: ensure indexes failed", err, "collection", cfg.Collection)
		}
		return driver, driver.Close, nil
	case BackendSQLite:
		db, err := sqlitestore.Open(cfg.SQLite.DSN)
		if err != nil {
			return nil, nil, goerrors.Wrap(err, goerrors.CategoryExternal, "go-records: sqlite open failed")
		}
		driver, err := sqlitestore.New(sqlitestore.Config{DB: db, Logger: logger})
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		closer := func(context.Context) error { return driver.Close() }
		return driver, closer, nil
	default:
		return nil, nil, goerrors.New("go-records: unknown backend "+cfg.Backend, goerrors.CategoryValidation).
			WithTextCode("UNKNOWN_BACKEND")
	}
}
