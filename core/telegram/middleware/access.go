package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dietbot/core/logger"
	tghelpers "github.com/m3rciful/dietbot/core/telegram/helpers"
)

// AdminOptions configures AdminOnlyMiddleware.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only opts.AdminID through. With no admin
// configured every sender is rejected.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if opts.AdminID != 0 && sender != nil && sender.ID == opts.AdminID {
				return next(c)
			}
			var userID int64
			if sender != nil {
				userID = sender.ID
			}
			logger.Warn(tghelpers.BuildContext(c), logger.CompTelegram, "access.denied",
				slog.Int64("user_id", userID),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
