package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dietbot/core/telegram"
	"github.com/m3rciful/dietbot/core/telegram/state"
	"github.com/m3rciful/dietbot/dietary/advice"
	"github.com/m3rciful/dietbot/dietary/catalog"
	"github.com/m3rciful/dietbot/dietary/conversation"
	"github.com/m3rciful/dietbot/dietary/recipes"
	"github.com/m3rciful/dietbot/dietary/shops"
	"github.com/m3rciful/dietbot/dietary/storage"
)

// fakeAPI is a Bot API stub that records method names and message texts.
type fakeAPI struct {
	mu      sync.Mutex
	methods []string
	texts   []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	var params map[string]any
	_ = json.NewDecoder(r.Body).Decode(&params)

	f.mu.Lock()
	f.methods = append(f.methods, method)
	if text, ok := params["text"].(string); ok {
		f.texts = append(f.texts, text)
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "sendMessage", "editMessageText":
		_, _ = fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":7,"type":"private"}}}`)
	default:
		_, _ = fmt.Fprint(w, `{"ok":true,"result":true}`)
	}
}

func (f *fakeAPI) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *fakeAPI) last(t *testing.T) string {
	t.Helper()
	s := f.sent()
	require.NotEmpty(t, s)
	return s[len(s)-1]
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]storage.User
	err   error
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[int64]storage.User{}} }

func (f *fakeUsers) GetOrCreate(_ context.Context, id storage.Identity) (storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return storage.User{}, f.err
	}
	u, ok := f.users[id.TelegramID]
	if !ok {
		u = storage.User{
			ID:           int64(len(f.users) + 1),
			TelegramID:   id.TelegramID,
			FirstName:    id.FirstName,
			LanguageCode: id.LanguageCode,
			IsActive:     true,
		}
		f.users[id.TelegramID] = u
	}
	return u, nil
}

func (f *fakeUsers) GetByTelegramID(_ context.Context, tgID int64) (storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return storage.User{}, f.err
	}
	u, ok := f.users[tgID]
	if !ok {
		return storage.User{}, fmt.Errorf("users get: %w", storage.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUsers) Toggle(_ context.Context, tgID int64, d storage.Diagnosis) (storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[tgID]
	switch d {
	case storage.DiagnosisDiabetes:
		u.HasDiabetes = !u.HasDiabetes
	case storage.DiagnosisGout:
		u.HasGout = !u.HasGout
	case storage.DiagnosisCeliac:
		u.HasCeliac = !u.HasCeliac
	}
	f.users[tgID] = u
	return u, nil
}

func (f *fakeUsers) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), nil
}

type fakeDiary struct {
	mu      sync.Mutex
	entries []storage.Entry
}

func (f *fakeDiary) Add(_ context.Context, e storage.Entry) (storage.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeDiary) Recent(_ context.Context, userID int64, limit int) ([]storage.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Entry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].UserID == userID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeDiary) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries), nil
}

type fakeAdvisor struct {
	answer string
	err    error
}

func (f fakeAdvisor) AskDietician(context.Context, string, catalog.Diagnoses, string) (string, error) {
	return f.answer, f.err
}

type fakePlanner struct {
	days int
	err  error
}

func (f *fakePlanner) GenerateMealPlan(_ context.Context, days int, _ catalog.Diagnoses, _ string) (string, error) {
	f.days = days
	if f.err != nil {
		return "", f.err
	}
	return "Day 1: oats & berries", nil
}

type fixedErrors uint64

func (e fixedErrors) ErrorCount() uint64 { return uint64(e) }

type harness struct {
	bot     *tele.Bot
	api     *fakeAPI
	reg     *telegram.Registry
	users   *fakeUsers
	diary   *fakeDiary
	planner *fakePlanner
	h       *Handlers
}

var lunchTime = time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, adv conversation.Advisor) *harness {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	b, err := tele.NewBot(tele.Settings{Offline: true, URL: srv.URL, Token: "123:test"})
	require.NoError(t, err)

	src := catalog.Fixtures()
	rs := recipes.NewService(src, 5)
	ss := shops.NewService(src, shops.DefaultRadiusKm, 5)
	users, diary, planner := newFakeUsers(), &fakeDiary{}, &fakePlanner{}
	h := New(Deps{
		Users:        users,
		Diary:        diary,
		Recipes:      rs,
		Costs:        ss,
		Planner:      planner,
		Conversation: conversation.NewMachine(state.NewMemoryStore(time.Minute), rs, adv, ss),
		SendErrors:   fixedErrors(2),
		Now:          func() time.Time { return lunchTime },
	})
	reg := telegram.NewRegistry()
	require.NoError(t, h.Register(reg))
	return &harness{bot: b, api: api, reg: reg, users: users, diary: diary, planner: planner, h: h}
}

var sender = &tele.User{ID: 7, FirstName: "Ann", LanguageCode: "en"}

func (hs *harness) command(t *testing.T, text string) error {
	t.Helper()
	_, cmd, ok := hs.reg.LookupCommand(text)
	require.True(t, ok, text)
	return cmd.Handler(hs.bot.NewContext(tele.Update{
		ID: 1,
		Message: &tele.Message{
			Sender:  sender,
			Chat:    &tele.Chat{ID: 7, Type: tele.ChatPrivate},
			Text:    text,
			Payload: strings.TrimSpace(strings.TrimPrefix(text, strings.Fields(text)[0])),
		},
	}))
}

func (hs *harness) press(t *testing.T, key, payload string) error {
	t.Helper()
	fn, ok := hs.reg.GetCallback(key)
	require.True(t, ok, key)
	data := "\f" + key
	if payload != "" {
		data += "|" + payload
	}
	return fn(hs.bot.NewContext(tele.Update{
		ID: 2,
		Callback: &tele.Callback{
			ID:      "cb",
			Sender:  sender,
			Data:    data,
			Message: &tele.Message{ID: 3, Chat: &tele.Chat{ID: 7, Type: tele.ChatPrivate}},
		},
	}))
}

func (hs *harness) say(t *testing.T, text string) error {
	t.Helper()
	return hs.reg.TextFallback()(hs.bot.NewContext(tele.Update{
		ID: 3,
		Message: &tele.Message{
			Sender: sender,
			Chat:   &tele.Chat{ID: 7, Type: tele.ChatPrivate},
			Text:   text,
		},
	}))
}

func (hs *harness) share(t *testing.T, lat, lng float32) error {
	t.Helper()
	return hs.reg.LocationHandler()(hs.bot.NewContext(tele.Update{
		ID: 4,
		Message: &tele.Message{
			Sender:   sender,
			Chat:     &tele.Chat{ID: 7, Type: tele.ChatPrivate},
			Location: &tele.Location{Lat: lat, Lng: lng},
		},
	}))
}

func TestRegisterListsPublicCommands(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	names := make([]string, 0)
	for _, c := range hs.reg.ListCommands(true) {
		names = append(names, c.Text)
	}
	assert.Equal(t, []string{"cancel", "help", "plan", "start"}, names)
	assert.Len(t, hs.reg.ListCallbacks(), 10)
}

func TestStartRegistersUserAndGreets(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.command(t, "/start"))

	assert.Contains(t, hs.api.last(t), "Welcome, Ann!")
	n, _ := hs.users.Count(context.Background())
	assert.Equal(t, 1, n)
}

func TestSearchFlowReturnsRecipes(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.press(t, cbSearchRecipe, ""))
	assert.Contains(t, hs.api.last(t), "Type ingredients")

	require.NoError(t, hs.say(t, "брокколи"))
	assert.Contains(t, hs.api.last(t), "Курица с брокколи на пару")

	// the pending action was consumed
	require.NoError(t, hs.say(t, "брокколи"))
	assert.Contains(t, hs.api.last(t), "Use the main menu")
}

func TestSearchWithoutMatches(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.press(t, cbSearchRecipe, ""))
	require.NoError(t, hs.say(t, "pizza"))
	assert.Contains(t, hs.api.last(t), "No recipes found")
}

func TestAskDieticianEscapesAnswer(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{answer: "Eat <more> greens"})
	require.NoError(t, hs.press(t, cbAskDietician, ""))
	require.NoError(t, hs.say(t, "what to eat?"))
	assert.Contains(t, hs.api.last(t), "Eat &lt;more&gt; greens")
}

func TestAskDieticianFallsBackOnError(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{err: errors.New("upstream down")})
	require.NoError(t, hs.press(t, cbAskDietician, ""))
	require.NoError(t, hs.say(t, "what to eat?"))
	assert.Contains(t, hs.api.last(t), "dietician is temporarily unavailable")
}

func TestFindShopsNeedsLocation(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.press(t, cbFindShops, ""))
	assert.Contains(t, hs.api.last(t), "Share your location")

	require.NoError(t, hs.say(t, "Red Square"))
	assert.Contains(t, hs.api.last(t), "needs a location")

	require.NoError(t, hs.share(t, 55.7558, 37.6173))
	got := hs.api.last(t)
	assert.Contains(t, got, "Shops nearby")
	assert.Contains(t, got, "Пятёрочка на Красной площади")
}

func TestRecipeDetailsWithAndWithoutLocation(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.press(t, cbRecipe, "r_001"))
	assert.Contains(t, hs.api.last(t), "Share your location to see prices")

	require.NoError(t, hs.press(t, cbFindShops, ""))
	require.NoError(t, hs.share(t, 55.7558, 37.6173))
	require.NoError(t, hs.press(t, cbRecipe, "r_001"))
	assert.Contains(t, hs.api.last(t), "Ingredient cost")
}

func TestRecipeUnknownID(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.press(t, cbRecipe, "r_404"))
	assert.Contains(t, hs.api.last(t), "Recipe not found")
}

func TestRecipeWithoutPayloadApologizes(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	err := hs.press(t, cbRecipe, "")
	require.Error(t, err)
	assert.Contains(t, hs.api.last(t), "Something went wrong")
}

func TestDiaryAddAndView(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.press(t, cbViewDiary, ""))
	assert.Contains(t, hs.api.last(t), "diary is empty")

	require.NoError(t, hs.press(t, cbDiaryAdd, "r_002"))
	assert.Contains(t, hs.api.last(t), "added to your diary (lunch)")
	require.Len(t, hs.diary.entries, 1)
	assert.Equal(t, int64(7), hs.diary.entries[0].UserID)
	assert.Equal(t, storage.MealLunch, hs.diary.entries[0].MealType)

	require.NoError(t, hs.press(t, cbViewDiary, ""))
	assert.Contains(t, hs.api.last(t), "Your food diary (last 10)")
}

func TestViewDiaryDoesNotRegister(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.press(t, cbViewDiary, ""))
	assert.Contains(t, hs.api.last(t), "diary is empty")
	assert.Empty(t, hs.users.users)

	hs.users.err = errors.New("db down")
	require.Error(t, hs.press(t, cbViewDiary, ""))
}

func TestUnknownButtonAnswersStale(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	c := hs.bot.NewContext(tele.Update{
		ID: 5,
		Callback: &tele.Callback{
			ID:      "cb",
			Sender:  sender,
			Data:    "\fold_button",
			Message: &tele.Message{ID: 3, Chat: &tele.Chat{ID: 7, Type: tele.ChatPrivate}},
		},
	})
	require.NoError(t, hs.reg.CallbackNotFound()(c))
	assert.Equal(t, textsFor("en").staleButton, hs.api.last(t))
}

func TestToggleDiagnosis(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.press(t, cbToggle, "gout"))
	assert.True(t, hs.users.users[7].HasGout)
	assert.Contains(t, hs.api.sent(), renderSettings(textsFor("en")))

	require.NoError(t, hs.press(t, cbToggle, "gout"))
	assert.False(t, hs.users.users[7].HasGout)

	assert.ErrorIs(t, hs.press(t, cbToggle, "asthma"), storage.ErrUnknownDiagnosis)
}

func TestCancel(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.command(t, "/cancel"))
	assert.Contains(t, hs.api.last(t), "Nothing to cancel")

	require.NoError(t, hs.press(t, cbSearchRecipe, ""))
	require.NoError(t, hs.press(t, cbCancel, ""))
	assert.Contains(t, hs.api.last(t), "Cancelled")
}

func TestPlanDays(t *testing.T) {
	assert.Equal(t, DefaultPlanDays, planDays(nil))
	assert.Equal(t, DefaultPlanDays, planDays([]string{"week"}))
	assert.Equal(t, 1, planDays([]string{"-3"}))
	assert.Equal(t, 3, planDays([]string{"3"}))
	assert.Equal(t, MaxPlanDays, planDays([]string{"40"}))
}

func TestPlanCommand(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.command(t, "/plan 3"))
	assert.Equal(t, 3, hs.planner.days)
	sent := hs.api.sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0], "3-day meal plan")
	assert.Equal(t, "Day 1: oats &amp; berries", sent[1])
}

func TestPlanCommandFallback(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	hs.planner.err = errors.New("timeout")
	require.NoError(t, hs.command(t, "/plan"))
	assert.Equal(t, DefaultPlanDays, hs.planner.days)
	assert.Equal(t, advice.MealPlanFallbackText("en"), hs.api.last(t))
}

func TestStats(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.command(t, "/start"))
	require.NoError(t, hs.command(t, "/stats"))
	got := hs.api.last(t)
	assert.Contains(t, got, "Users: 1")
	assert.Contains(t, got, "Send failures: 2")
	assert.Contains(t, got, "Build: dev+local")
}

func TestUserStoreFailureApologizes(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	hs.users.err = errors.New("db down")
	require.Error(t, hs.command(t, "/start"))
	assert.Contains(t, hs.api.last(t), "Something went wrong")
}

func TestTextUserFailureDropsPendingAction(t *testing.T) {
	hs := newHarness(t, fakeAdvisor{})
	require.NoError(t, hs.press(t, cbSearchRecipe, ""))

	hs.users.err = errors.New("db down")
	require.Error(t, hs.say(t, "курица"))
	assert.Contains(t, hs.api.last(t), "Something went wrong")

	prev, err := hs.h.Conversation.Cancel(context.Background(), sender.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StateIdle, prev)
}
