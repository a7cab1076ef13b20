package router

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dietbot/core/logger"
	tg "github.com/m3rciful/dietbot/core/telegram"
	"github.com/m3rciful/dietbot/core/telegram/commands"
	"github.com/m3rciful/dietbot/core/telegram/middleware"
)

// CommandOptions configures admin enforcement for commands.
type CommandOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

func wrapCommand(name string, def commands.Command, opts CommandOptions) tele.HandlerFunc {
	h := func(c tele.Context) error {
		return handleWithSummary(c, handlerName("command.", name), func() error { return def.Handler(c) })
	}
	if def.AdminOnly {
		h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
			AdminID:  opts.AdminID,
			OnReject: opts.OnAdminReject,
		})(h)
	}
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

// CommandRoutes binds each registered command to its slash endpoint.
func CommandRoutes(reg *tg.Registry, opts CommandOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	defs := reg.Commands()
	routes := make([]tg.Route, 0, len(defs))
	for name, def := range defs {
		routes = append(routes, tg.Route{Endpoint: name, Handler: wrapCommand(name, def, opts)})
	}

	logger.Info(context.Background(), logger.CompWire, "routes.commands",
		slog.String("status", "ok"),
		slog.Int("commands", len(defs)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

// TextRoute handles plain text. Command aliases go to their command and
// everything else to the registry's text fallback.
func TextRoute(reg *tg.Registry, opts CommandOptions) tg.Route {
	handler := func(c tele.Context) error {
		if name, def, ok := reg.LookupCommand(c.Text()); ok {
			return wrapCommand(name, def, opts)(c)
		}
		fb := reg.TextFallback()
		if fb == nil {
			logSummary(c, "text.unhandled", time.Now(), statusSkip, nil)
			return nil
		}
		return handleWithSummary(c, "text", func() error { return fb(c) })
	}
	return tg.Route{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

// LocationRoute handles shared locations.
func LocationRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		h := reg.LocationHandler()
		if h == nil {
			logSummary(c, "location.unhandled", time.Now(), statusSkip, nil)
			return nil
		}
		return handleWithSummary(c, "location", func() error { return h(c) })
	}
	return tg.Route{
		Endpoint: tele.OnLocation,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
