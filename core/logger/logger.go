package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/dietbot/core/buildinfo"
	"github.com/m3rciful/dietbot/core/config"
)

// Component names used across the bot.
const (
	CompApp          = "app"
	CompDB           = "db"
	CompMigrate      = "db.migrate"
	CompSeed         = "db.seed"
	CompTelegram     = "tg"
	CompWire         = "tg.wire"
	CompRecipes      = "service.recipes"
	CompShops        = "service.shops"
	CompAdvice       = "service.advice"
	CompUsers        = "service.users"
	CompDiary        = "service.diary"
	CompConversation = "conversation"
	CompMetrics      = "metrics"
)

var (
	initOnce sync.Once
	closeMu  sync.Mutex
	closed   bool

	sink    *asyncWriter
	closers []io.Closer

	level slog.LevelVar

	debugSampler = newRatioSampler(1, 50)
	traceAll     bool

	// L is the root logger. It is nil until Init succeeds.
	L *slog.Logger

	DB    *slog.Logger
	MIG   *slog.Logger
	SEED  *slog.Logger
	TG    *slog.Logger
	TWire *slog.Logger

	// Domain service loggers.
	Recipes *slog.Logger
	Shops   *slog.Logger
	Advice  *slog.Logger
	Users   *slog.Logger
	Diary   *slog.Logger
	Conv    *slog.Logger
)

// Init configures the global structured logger. Only the first call has effect.
func Init(cfg *config.Config) error {
	var err error
	initOnce.Do(func() {
		var outputs []io.Writer
		outputs, closers, err = openOutputs(cfg)
		if err != nil {
			return
		}
		level.Set(parseLevel(cfg))
		debugSampler.Set(parseDebugSample(cfg))
		traceAll = envTruthy("TRACE") || envTruthy("LOG_TRACE")

		sink = newAsyncWriter(outputs, 64*1024)
		install(slog.New(newStructuredHandler(handlerConfig{
			level:    &level,
			writer:   sink,
			format:   parseFormat(cfg),
			keyOrder: parseKeyOrder(cfg),
		})))
		logStartup(cfg)
	})
	return err
}

func install(root *slog.Logger) {
	L = root
	slog.SetDefault(root)

	DB = root.With("component", CompDB)
	MIG = root.With("component", CompMigrate)
	SEED = root.With("component", CompSeed)
	TG = root.With("component", CompTelegram)
	TWire = root.With("component", CompWire)
	Recipes = root.With("component", CompRecipes)
	Shops = root.With("component", CompShops)
	Advice = root.With("component", CompAdvice)
	Users = root.With("component", CompUsers)
	Diary = root.With("component", CompDiary)
	Conv = root.With("component", CompConversation)
}

func logStartup(cfg *config.Config) {
	attrs := []slog.Attr{
		slog.String("component", CompApp),
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("profile", parseProfile(cfg)),
	}
	L.LogAttrs(context.Background(), slog.LevelInfo, "startup", attrs...)
}

// Shutdown flushes buffered output and closes file sinks.
func Shutdown() error {
	closeMu.Lock()
	defer closeMu.Unlock()
	if closed {
		return nil
	}
	closed = true

	var errs []error
	if sink != nil {
		errs = append(errs, sink.Flush(), sink.Close())
	}
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Or returns l when it is set, otherwise the root logger, otherwise slog's default.
// Packages use it so they keep working in tests where Init was never called.
func Or(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	if L != nil {
		return L
	}
	return slog.Default()
}

// Component returns a logger scoped to the component attribute.
func Component(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return Or(nil)
	}
	return Or(nil).With("component", name)
}

// LogEvent writes an event line, falling back to the context logger when logg is nil.
func LogEvent(ctx context.Context, logg *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	logg = Or(logg)
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, lvl, "", attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug event should be written.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.Allow()
}
