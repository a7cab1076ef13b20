package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dietbot/core/logger"
	tghelpers "github.com/m3rciful/dietbot/core/telegram/helpers"
)

// RateLimitOptions configures RateLimitMiddleware. Exclude holds update
// kinds as returned by UpdateKind.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	Now       func() time.Time
}

// RateLimitMiddleware drops updates that arrive from the same user sooner
// than opts.Interval after the previous accepted one.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
	)
	allow := func(userID int64) bool {
		t := now()
		mu.Lock()
		defer mu.Unlock()
		if last, ok := lastSeen[userID]; ok && t.Sub(last) < opts.Interval {
			return false
		}
		lastSeen[userID] = t
		return true
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if allow(user.ID) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), logger.CompTelegram, "rate_limit",
				slog.String("kind", kind),
				slog.Int64("user_id", user.ID),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
