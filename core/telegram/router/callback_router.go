package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/dietbot/core/telegram"
	"github.com/m3rciful/dietbot/core/telegram/callbacks"
	"github.com/m3rciful/dietbot/core/telegram/middleware"
)

// CallbackRoute dispatches every inline button press by its key. The
// button spinner is cleared before the handler runs.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.Parse(c.Callback())
		name := handlerName("callback.", key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		h, ok := reg.GetCallback(key)
		if !ok {
			extras = append(extras, slog.String("reason", "not_found"))
			h = reg.CallbackNotFound()
			return handleWithSummary(c, name, func() error { return h(c) }, extras...)
		}
		_ = c.Respond()
		return handleWithSummary(c, name, func() error { return h(c) }, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
