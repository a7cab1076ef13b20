// Package cmd holds the process entry logic shared by bot binaries.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3rciful/dietbot/core/config"
	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/core/telegram"
)

// App is a bootstrapped bot ready to run.
type App interface {
	TelegramRunOptions() (telegram.RunOptions, error)
	Close() error
}

// Options describe how to load configuration, bootstrap the app and run it.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (*config.Config, error)
	Bootstrap  func(ctx context.Context, cfg *config.Config) (App, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts telegram.RunOptions) error
	// Signals overrides the signals that stop the bot.
	Signals []os.Signal
}

// Run loads the config, bootstraps the app and serves updates until
// SIGINT or SIGTERM.
func Run(opts Options) (err error) {
	if opts.Bootstrap == nil {
		return errors.New("cmd: Bootstrap is required")
	}
	load := opts.LoadConfig
	if load == nil {
		load = config.Load
	}

	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	path := os.Getenv(env)
	if path == "" {
		path = opts.DefaultConfigPath
	}
	if path == "" {
		return fmt.Errorf("cmd: config path not set; use %s", env)
	}

	log.Printf("loading config: %s", path)
	cfg, err := load(path)
	if err != nil {
		return fmt.Errorf("cmd: load config: %w", err)
	}

	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()

	startedAt := time.Now()
	app, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("cmd: close: %w", cerr))
		}
		if lerr := shutdownLogger(); lerr != nil {
			log.Printf("logger shutdown: %v", lerr)
		}
	}()

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}

	prevStart := runOpts.OnStart
	runOpts.OnStart = func(ctx context.Context, rt telegram.Runtime) error {
		if prevStart != nil {
			if err := prevStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, logger.CompApp, "ready",
			slog.Duration("startup_duration", logger.Took(startedAt)),
		)
		return nil
	}
	prevStop := runOpts.OnStop
	runOpts.OnStop = func(ctx context.Context, rt telegram.Runtime) error {
		logger.Info(ctx, logger.CompApp, "shutdown")
		if prevStop != nil {
			return prevStop(ctx, rt)
		}
		return nil
	}

	run := opts.RunTelegram
	if run == nil {
		run = telegram.RunTelegram
	}
	return run(ctx, runOpts)
}
