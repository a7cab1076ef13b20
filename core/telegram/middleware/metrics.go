package middleware

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dietbot/core/metrics"
)

const (
	KindCallback = "callback"
	KindLocation = "location"
	KindMessage  = "message"
	KindOther    = "other"
)

// UpdateKind buckets an update for rate limiting, logs and metrics.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return KindCallback
	case upd.Message != nil && upd.Message.Location != nil:
		return KindLocation
	case upd.Message != nil:
		return KindMessage
	default:
		return KindOther
	}
}

const (
	keyMessages = "messages"
	keyKeyboard = "kb"
)

// countingContext counts the replies a handler produces.
type countingContext struct{ tele.Context }

func (m countingContext) record(err error, opts []any) error {
	if err != nil {
		return err
	}
	n, _ := m.Get(keyMessages).(int)
	m.Set(keyMessages, n+1)
	if carriesKeyboard(opts) {
		m.Set(keyKeyboard, true)
	}
	metrics.MessagesSent.Inc()
	return nil
}

func carriesKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m countingContext) Send(what any, opts ...any) error {
	return m.record(m.Context.Send(what, opts...), opts)
}

func (m countingContext) Reply(what any, opts ...any) error {
	return m.record(m.Context.Reply(what, opts...), opts)
}

func (m countingContext) Edit(what any, opts ...any) error {
	return m.record(m.Context.Edit(what, opts...), opts)
}

func (m countingContext) EditOrSend(what any, opts ...any) error {
	return m.record(m.Context.EditOrSend(what, opts...), opts)
}

func (m countingContext) EditOrReply(what any, opts ...any) error {
	return m.record(m.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware counts replies per update and records the update
// outcome in dietbot_updates_total.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(keyMessages, 0)
		c.Set(keyKeyboard, false)
		err := next(countingContext{Context: c})
		metrics.UpdatesTotal.WithLabelValues(UpdateKind(c.Update()), metrics.Result(err)).Inc()
		return err
	}
}

// GetCounters returns the replies sent for the current update and whether
// any of them carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(keyMessages).(int)
	kb, _ := c.Get(keyKeyboard).(bool)
	return msgs, kb
}
