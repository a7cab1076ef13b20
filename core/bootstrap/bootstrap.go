package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/dietbot/core/config"
	"github.com/m3rciful/dietbot/core/database"
	"github.com/m3rciful/dietbot/core/logger"
)

// Options control the startup pipeline. Nil hooks fall back to the real
// implementations.
type Options struct {
	Config  *config.Config
	Modules Modules

	LoggerInit   func(*config.Config) error
	Connect      func(context.Context, config.DatabaseConfig) (*sqlx.DB, error)
	Migrate      func(context.Context, config.DatabaseConfig) error
	ConnectRedis func(context.Context, config.RedisConfig) (*redis.Client, error)
}

// Result exposes infrastructure initialized by Run.
type Result struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// Close releases everything Run opened.
func (r *Result) Close() error {
	var errs []error
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	return errors.Join(errs...)
}

// Run initializes the logger, connects to PostgreSQL, applies migrations,
// runs seeders and, for the redis state backend, connects to Redis.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.Init
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = database.Connect
	}
	db, err := connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	res := &Result{DB: db}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = database.RunMigrations
	}
	if err := migrate(ctx, cfg.Database); err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	for i, s := range opts.Modules.Seeders {
		if err := s.Seed(ctx, db); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: seeder #%d failed: %w", i, err)
		}
	}

	if cfg.State.Backend == config.StateBackendRedis {
		connectRedis := opts.ConnectRedis
		if connectRedis == nil {
			connectRedis = database.ConnectRedis
		}
		rdb, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: redis initialization failed: %w", err)
		}
		res.Redis = rdb
	}
	return res, nil
}
