package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/core/metrics"
	tghelpers "github.com/m3rciful/dietbot/core/telegram/helpers"
	"github.com/m3rciful/dietbot/core/telegram/middleware"
)

const (
	statusOK   = "ok"
	statusFail = "fail"
	statusSkip = "skip"
)

// handleWithSummary runs fn under the handler name and writes one
// handler.handled line plus the latency sample.
func handleWithSummary(c tele.Context, name string, fn func() error, extras ...slog.Attr) error {
	start := time.Now()
	tghelpers.WithHandler(c, name)
	err := fn()
	metrics.HandlerDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	status := statusOK
	if err != nil {
		status = statusFail
	}
	logSummary(c, name, start, status, err, extras...)
	return err
}

func logSummary(c tele.Context, name string, start time.Time, status string, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)
	msgs, kb := middleware.GetCounters(c)

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", name),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	attrs = append(attrs, extras...)
	logger.Info(ctx, logger.CompTelegram, "handler.handled", attrs...)
}

// handlerName turns a command or callback key into a metric-safe label.
func handlerName(prefix, key string) string {
	key = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(key, "/")))
	if key == "" {
		key = "unknown"
	}
	return prefix + strings.ReplaceAll(key, " ", "_")
}

// errorCode names the innermost error type, or uses its Code method.
func errorCode(err error) string {
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
