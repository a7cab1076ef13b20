package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dietbot/core/telegram/state"
	"github.com/m3rciful/dietbot/dietary/advice"
	"github.com/m3rciful/dietbot/dietary/catalog"
	"github.com/m3rciful/dietbot/dietary/recipes"
	"github.com/m3rciful/dietbot/dietary/shops"
)

type fakeAdvisor struct {
	answer string
	err    error
	calls  int
	got    catalog.Diagnoses
}

func (f *fakeAdvisor) AskDietician(_ context.Context, _ string, d catalog.Diagnoses, _ string) (string, error) {
	f.calls++
	f.got = d
	return f.answer, f.err
}

type failingStore struct {
	state.Store
	err error
}

func (f failingStore) Take(context.Context, int64) (state.State, error) {
	return state.StateIdle, f.err
}

// racingStore lets another action land between Take and the restore.
type racingStore struct {
	*state.MemoryStore
	next state.State
}

func (r racingStore) Take(ctx context.Context, userID int64) (state.State, error) {
	st, err := r.MemoryStore.Take(ctx, userID)
	if err != nil {
		return st, err
	}
	return st, r.MemoryStore.Set(ctx, userID, r.next)
}

const uid = 77

func newMachine(adv Advisor) (*Machine, state.Store) {
	src := catalog.Fixtures()
	store := state.NewMemoryStore(time.Minute)
	return NewMachine(store,
		recipes.NewService(src, 10),
		adv,
		shops.NewService(src, shops.DefaultRadiusKm, 5),
	), store
}

func pendingOf(t *testing.T, s state.Store) state.State {
	t.Helper()
	st, err := s.Get(context.Background(), uid)
	require.NoError(t, err)
	return st
}

func TestTextWhileIdleShowsMenu(t *testing.T) {
	m, store := newMachine(&fakeAdvisor{})

	res, err := m.HandleText(context.Background(), Profile{UserID: uid}, "привет")
	require.NoError(t, err)
	assert.Equal(t, OutcomeMenu, res.Outcome)
	assert.Equal(t, state.StateIdle, pendingOf(t, store))
}

func TestSearchRecipeFlow(t *testing.T) {
	m, store := newMachine(&fakeAdvisor{})
	ctx := context.Background()

	require.NoError(t, m.Select(ctx, uid, ActionSearchRecipe))
	assert.Equal(t, ActionSearchRecipe, pendingOf(t, store))

	res, err := m.HandleText(ctx, Profile{UserID: uid, Diagnoses: catalog.Diagnoses{Gout: true}}, " курица ")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecipes, res.Outcome)
	assert.Equal(t, "курица", res.Query)
	require.Len(t, res.Recipes, 1)
	assert.Equal(t, "r_001", res.Recipes[0].ID)
	assert.Equal(t, state.StateIdle, pendingOf(t, store))
}

func TestSearchRecipeNoResultsStillReturnsToIdle(t *testing.T) {
	m, store := newMachine(&fakeAdvisor{})
	ctx := context.Background()

	require.NoError(t, m.Select(ctx, uid, ActionSearchRecipe))
	res, err := m.HandleText(ctx, Profile{UserID: uid}, "пицца")
	require.NoError(t, err)
	assert.Empty(t, res.Recipes)
	assert.Equal(t, state.StateIdle, pendingOf(t, store))
}

func TestAskDieticianFlow(t *testing.T) {
	adv := &fakeAdvisor{answer: "Пейте больше воды."}
	m, store := newMachine(adv)
	ctx := context.Background()
	d := catalog.Diagnoses{Diabetes: true}

	require.NoError(t, m.Select(ctx, uid, ActionAskDietician))
	res, err := m.HandleText(ctx, Profile{UserID: uid, Diagnoses: d}, "Что есть на завтрак?")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvice, res.Outcome)
	assert.Equal(t, "Пейте больше воды.", res.Advice)
	assert.NoError(t, res.AdviceErr)
	assert.Equal(t, d, adv.got)
	assert.Equal(t, state.StateIdle, pendingOf(t, store))
}

func TestAskDieticianFailureDegrades(t *testing.T) {
	upstream := &advice.Error{Kind: advice.KindTransient, Op: "ask", Attempts: 3, Err: errors.New("503")}
	m, store := newMachine(&fakeAdvisor{err: upstream})
	ctx := context.Background()

	require.NoError(t, m.Select(ctx, uid, ActionAskDietician))
	res, err := m.HandleText(ctx, Profile{UserID: uid, Locale: "ru"}, "вопрос")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvice, res.Outcome)
	assert.ErrorIs(t, res.AdviceErr, upstream)
	assert.Equal(t, advice.FallbackText(upstream, "ru"), res.Advice)
	assert.Equal(t, state.StateIdle, pendingOf(t, store))
}

func TestFindShopsTextAsksForLocation(t *testing.T) {
	m, store := newMachine(&fakeAdvisor{})
	ctx := context.Background()

	require.NoError(t, m.Select(ctx, uid, ActionFindShops))
	res, err := m.HandleText(ctx, Profile{UserID: uid}, "Тверская 15")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNeedLocation, res.Outcome)
	assert.Equal(t, ActionFindShops, pendingOf(t, store), "find_shops stays pending")
}

func TestFindShopsRestoreKeepsNewerSelection(t *testing.T) {
	src := catalog.Fixtures()
	store := racingStore{MemoryStore: state.NewMemoryStore(time.Minute), next: ActionAskDietician}
	m := NewMachine(store, recipes.NewService(src, 10), &fakeAdvisor{}, shops.NewService(src, shops.DefaultRadiusKm, 5))
	ctx := context.Background()

	require.NoError(t, store.MemoryStore.Set(ctx, uid, ActionFindShops))
	res, err := m.HandleText(ctx, Profile{UserID: uid}, "Тверская 15")
	require.NoError(t, err)
	assert.Equal(t, OutcomeMenu, res.Outcome)
	assert.Equal(t, ActionAskDietician, pendingOf(t, store))
}

func TestLocationResolvesFindShops(t *testing.T) {
	m, store := newMachine(&fakeAdvisor{})
	ctx := context.Background()

	require.NoError(t, m.Select(ctx, uid, ActionFindShops))
	res, err := m.HandleLocation(ctx, Profile{UserID: uid}, 55.7558, 37.6173)
	require.NoError(t, err)
	assert.Equal(t, OutcomeShops, res.Outcome)
	require.Len(t, res.Shops, 3)
	assert.Equal(t, "shop_001", res.Shops[0].ID)
	assert.Equal(t, state.StateIdle, pendingOf(t, store))

	lat, lon, ok, err := m.LastLocation(ctx, uid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 55.7558, lat)
	assert.Equal(t, 37.6173, lon)
}

func TestLocationKeepsOtherPendingAction(t *testing.T) {
	m, store := newMachine(&fakeAdvisor{})
	ctx := context.Background()

	require.NoError(t, m.Select(ctx, uid, ActionSearchRecipe))
	res, err := m.HandleLocation(ctx, Profile{UserID: uid}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Shops)
	assert.Equal(t, ActionSearchRecipe, pendingOf(t, store))
}

func TestSelectOverwritesAndRejectsUnknown(t *testing.T) {
	m, store := newMachine(&fakeAdvisor{})
	ctx := context.Background()

	require.NoError(t, m.Select(ctx, uid, ActionSearchRecipe))
	require.NoError(t, m.Select(ctx, uid, ActionAskDietician))
	assert.Equal(t, ActionAskDietician, pendingOf(t, store))

	assert.ErrorIs(t, m.Select(ctx, uid, "view_diary"), ErrUnknownAction)
	assert.Equal(t, ActionAskDietician, pendingOf(t, store))
}

func TestCancel(t *testing.T) {
	m, store := newMachine(&fakeAdvisor{})
	ctx := context.Background()

	require.NoError(t, m.Select(ctx, uid, ActionAskDietician))
	prev, err := m.Cancel(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, ActionAskDietician, prev)
	assert.Equal(t, state.StateIdle, pendingOf(t, store))

	prev, err = m.Cancel(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, state.StateIdle, prev)
}

func TestStoreFailureSurfaces(t *testing.T) {
	boom := errors.New("redis down")
	adv := &fakeAdvisor{}
	m := NewMachine(failingStore{Store: state.NewMemoryStore(time.Minute), err: boom}, nil, adv, nil)

	_, err := m.HandleText(context.Background(), Profile{UserID: uid}, "text")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, adv.calls)
}

func TestLastLocationUnknown(t *testing.T) {
	m, _ := newMachine(&fakeAdvisor{})

	_, _, ok, err := m.LastLocation(context.Background(), uid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPointRoundTrip(t *testing.T) {
	lat, lon, ok := parsePoint(formatPoint(-33.8688, 151.2093))
	require.True(t, ok)
	assert.Equal(t, -33.8688, lat)
	assert.Equal(t, 151.2093, lon)

	_, _, ok = parsePoint("garbage")
	assert.False(t, ok)
}
