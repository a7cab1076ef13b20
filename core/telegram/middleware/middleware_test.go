package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/dietbot/core/telegram/helpers"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func textUpdate(id int, userID int64, text string) tele.Update {
	return tele.Update{
		ID: id,
		Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   text,
		},
	}
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, KindCallback, UpdateKind(tele.Update{Callback: &tele.Callback{}}))
	assert.Equal(t, KindLocation, UpdateKind(tele.Update{Message: &tele.Message{Location: &tele.Location{}}}))
	assert.Equal(t, KindMessage, UpdateKind(tele.Update{Message: &tele.Message{Text: "hi"}}))
	assert.Equal(t, KindOther, UpdateKind(tele.Update{}))
}

func TestRecoverMiddlewareReturnsPanicAsError(t *testing.T) {
	b := offlineBot(t)
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })

	err := h(b.NewContext(textUpdate(1, 7, "x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestLoggerMiddlewareStoresContext(t *testing.T) {
	b := offlineBot(t)
	c := b.NewContext(textUpdate(5, 7, "hello"))

	called := false
	err := LoggerMiddleware(func(c tele.Context) error {
		called = true
		_, ok := tghelpers.ContextFrom(c)
		assert.True(t, ok)
		assert.NotEmpty(t, c.Get("rid"))
		return nil
	})(c)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestSeenUpdatesExpires(t *testing.T) {
	s := &seenUpdates{ttl: time.Second, seen: make(map[int]time.Time)}
	t0 := time.Unix(100, 0)

	assert.True(t, s.first(1, t0))
	assert.False(t, s.first(1, t0.Add(500*time.Millisecond)))
	assert.True(t, s.first(1, t0.Add(2*time.Second)))
}

func TestRateLimitMiddleware(t *testing.T) {
	b := offlineBot(t)
	now := time.Unix(1_000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{KindLocation: {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return now },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(b.NewContext(textUpdate(1, 7, "a"))))
	require.NoError(t, h(b.NewContext(textUpdate(2, 7, "b"))))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, limited)

	// Another user is tracked separately.
	require.NoError(t, h(b.NewContext(textUpdate(3, 8, "c"))))
	assert.Equal(t, 2, calls)

	loc := textUpdate(4, 7, "")
	loc.Message.Location = &tele.Location{Lat: 55.75, Lng: 37.61}
	require.NoError(t, h(b.NewContext(loc)))
	assert.Equal(t, 3, calls)

	now = now.Add(2 * time.Second)
	require.NoError(t, h(b.NewContext(textUpdate(5, 7, "d"))))
	assert.Equal(t, 4, calls)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	b := offlineBot(t)
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{
		AdminID:  42,
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(b.NewContext(textUpdate(1, 42, "/stats"))))
	require.NoError(t, h(b.NewContext(textUpdate(2, 7, "/stats"))))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, rejected)

	none := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { calls++; return nil })
	require.NoError(t, none(b.NewContext(textUpdate(3, 42, "/stats"))))
	assert.Equal(t, 1, calls)
}

func TestMessageMetricsMiddlewarePassesErrors(t *testing.T) {
	b := offlineBot(t)
	boom := errors.New("boom")
	c := b.NewContext(textUpdate(1, 7, "x"))

	err := MessageMetricsMiddleware(func(tele.Context) error { return boom })(c)
	assert.ErrorIs(t, err, boom)
	msgs, kb := GetCounters(c)
	assert.Zero(t, msgs)
	assert.False(t, kb)
}

func TestCarriesKeyboard(t *testing.T) {
	assert.False(t, carriesKeyboard(nil))
	assert.False(t, carriesKeyboard([]any{&tele.SendOptions{ParseMode: tele.ModeHTML}}))
	assert.True(t, carriesKeyboard([]any{&tele.ReplyMarkup{}}))
	assert.True(t, carriesKeyboard([]any{&tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}}}))
}
