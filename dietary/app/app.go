// Package app assembles the dietary bot from configuration: infrastructure,
// catalog, services, conversation store and Telegram routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/dietbot/core/bootstrap"
	"github.com/m3rciful/dietbot/core/config"
	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/core/metrics"
	"github.com/m3rciful/dietbot/core/telegram"
	"github.com/m3rciful/dietbot/core/telegram/router"
	"github.com/m3rciful/dietbot/core/telegram/sender"
	"github.com/m3rciful/dietbot/core/telegram/state"
	"github.com/m3rciful/dietbot/dietary/advice"
	"github.com/m3rciful/dietbot/dietary/bot"
	"github.com/m3rciful/dietbot/dietary/catalog"
	"github.com/m3rciful/dietbot/dietary/conversation"
	"github.com/m3rciful/dietbot/dietary/recipes"
	"github.com/m3rciful/dietbot/dietary/shops"
	"github.com/m3rciful/dietbot/dietary/storage"
)

const sweepEvery = time.Minute

// App is the bootstrapped bot. It satisfies cmd.App.
type App struct {
	cfg        *config.Config
	infra      *bootstrap.Result
	memory     *state.MemoryStore
	registry   *telegram.Registry
	handlers   *bot.Handlers
	dispatcher *sender.Dispatcher
}

// New runs the startup pipeline with the real infrastructure.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	return NewWith(ctx, bootstrap.Options{Config: cfg})
}

// NewWith is New with replaceable bootstrap hooks. opts.Modules is filled
// from the catalog settings.
func NewWith(ctx context.Context, opts bootstrap.Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}

	seedSrc, err := fileCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.Seed {
		opts.Modules.Seeders = append(opts.Modules.Seeders, storage.CatalogSeeder{Source: seedSrc})
	}

	infra, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, infra: infra}
	if err := a.wire(ctx, seedSrc); err != nil {
		return nil, errors.Join(err, infra.Close())
	}
	return a, nil
}

// fileCatalog returns the catalog that does not need a database: the YAML
// file when configured, the built-in fixtures otherwise.
func fileCatalog(cfg config.CatalogConfig) (catalog.Source, error) {
	if cfg.Source != config.CatalogFile {
		return catalog.Fixtures(), nil
	}
	src, err := catalog.LoadFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("app: catalog file: %w", err)
	}
	return src, nil
}

func (a *App) wire(ctx context.Context, src catalog.Source) error {
	cfg := a.cfg
	if cfg.Catalog.Source == config.CatalogDatabase {
		loaded, err := storage.LoadCatalog(ctx, a.infra.DB)
		if err != nil {
			return fmt.Errorf("app: catalog from database: %w", err)
		}
		src = loaded
	}
	logger.Info(ctx, logger.CompApp, "catalog.ready",
		slog.String("source", cfg.Catalog.Source),
		slog.Int("recipes", len(src.Recipes())),
		slog.Int("shops", len(src.Shops())),
	)

	store := storage.New(a.infra.DB)
	recipeSvc := recipes.NewService(src, cfg.Limits.MaxRecipeResults)
	shopSvc := shops.NewService(src, cfg.Limits.ShopRadiusKm, cfg.Limits.MaxShopResults)
	adviceSvc := advice.NewService(
		advice.NewOpenAI(advice.OpenAIConfig{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			HTTPTimeout: cfg.LLM.Timeout,
		}),
		adviceOptions(cfg.LLM),
	)

	a.dispatcher = sender.NewDispatcher(sender.Options{})
	a.handlers = bot.New(bot.Deps{
		Users:         store.Users,
		Diary:         store.Diary,
		Recipes:       recipeSvc,
		Costs:         shopSvc,
		Planner:       adviceSvc,
		Conversation:  conversation.NewMachine(a.stateStore(), recipeSvc, adviceSvc, shopSvc),
		SendErrors:    a.dispatcher,
		DefaultLocale: cfg.Limits.DefaultLocale,
	})
	a.registry = telegram.NewRegistry()
	return a.handlers.Register(a.registry)
}

func adviceOptions(l config.LLMConfig) advice.Options {
	return advice.Options{
		MaxTokens:     l.MaxTokens,
		PlanMaxTokens: l.PlanMaxTokens,
		Temperature:   l.Temperature,
		TopP:          l.TopP,
		Timeout:       l.Timeout,
		MaxAttempts:   l.MaxAttempts,
		BackoffBase:   l.BackoffBase,
		BackoffMax:    l.BackoffMax,
	}
}

func (a *App) stateStore() state.Store {
	if a.cfg.State.Backend == config.StateBackendRedis && a.infra.Redis != nil {
		return state.NewRedisStore(a.infra.Redis, a.cfg.State.Prefix, a.cfg.State.TTL)
	}
	a.memory = state.NewMemoryStore(a.cfg.State.TTL)
	return a.memory
}

// TelegramRunOptions returns the routes, middlewares and lifecycle hooks
// for telegram.RunTelegram.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	if a.registry == nil {
		return telegram.RunOptions{}, errors.New("app: not wired")
	}
	cmdOpts := router.CommandOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.handlers.OnAdminReject,
	}
	routes := router.CommandRoutes(a.registry, cmdOpts)
	routes = append(routes,
		router.CallbackRoute(a.registry),
		router.TextRoute(a.registry, cmdOpts),
		router.LocationRoute(a.registry),
	)
	return telegram.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Dispatcher:  a.dispatcher,
		Middlewares: telegram.DefaultMiddlewares(a.cfg, a.handlers.OnRateLimited),
		Routes:      routes,
		OnStart:     a.onStart,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ telegram.Runtime) error {
	if a.memory != nil {
		go a.memory.RunSweeper(ctx, sweepEvery)
	}
	if addr := a.cfg.Metrics.Listen; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				logger.Error(ctx, logger.CompMetrics, "metrics.serve", slog.String("err", err.Error()))
			}
		}()
	}
	return nil
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	if a.infra == nil {
		return nil
	}
	return a.infra.Close()
}
