// Package conversation routes a user's free text and shared locations
// according to the menu action they picked last.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/core/telegram/state"
	"github.com/m3rciful/dietbot/dietary/advice"
	"github.com/m3rciful/dietbot/dietary/catalog"
	"github.com/m3rciful/dietbot/dietary/shops"
)

// Menu actions that wait for a follow-up message.
const (
	ActionSearchRecipe state.State = "search_recipe"
	ActionFindShops    state.State = "find_shops"
	ActionAskDietician state.State = "ask_dietician"
)

// ErrUnknownAction is returned by Select for actions that expect no input.
var ErrUnknownAction = errors.New("unknown action")

const tempLocation = "location"

type RecipeSearcher interface {
	Search(ctx context.Context, query string, d catalog.Diagnoses) []catalog.Recipe
}

type Advisor interface {
	AskDietician(ctx context.Context, question string, d catalog.Diagnoses, locale string) (string, error)
}

type ShopLocator interface {
	FindNearby(ctx context.Context, lat, lon float64) []shops.Nearby
}

// Profile is the slice of the user record the machine needs.
type Profile struct {
	UserID    int64
	Diagnoses catalog.Diagnoses
	Locale    string
}

type Outcome int

const (
	// OutcomeMenu: nothing was pending, show the main menu.
	OutcomeMenu Outcome = iota
	OutcomeRecipes
	OutcomeAdvice
	// OutcomeNeedLocation: find_shops is pending and text cannot satisfy it.
	OutcomeNeedLocation
	OutcomeShops
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecipes:
		return "recipes"
	case OutcomeAdvice:
		return "advice"
	case OutcomeNeedLocation:
		return "need_location"
	case OutcomeShops:
		return "shops"
	default:
		return "menu"
	}
}

// Result describes what the bot should show next.
type Result struct {
	Outcome Outcome
	Query   string
	Recipes []catalog.Recipe
	// Advice holds the model's answer or, when AdviceErr is set, the apology.
	Advice    string
	AdviceErr error
	Shops     []shops.Nearby
}

type Machine struct {
	store   state.Store
	recipes RecipeSearcher
	advisor Advisor
	shops   ShopLocator
	log     *slog.Logger
}

func NewMachine(store state.Store, recipes RecipeSearcher, advisor Advisor, locator ShopLocator) *Machine {
	return &Machine{
		store:   store,
		recipes: recipes,
		advisor: advisor,
		shops:   locator,
		log:     logger.Or(logger.Conv),
	}
}

// Select records action as the user's pending input, replacing any other.
func (m *Machine) Select(ctx context.Context, userID int64, action state.State) error {
	switch action {
	case ActionSearchRecipe, ActionFindShops, ActionAskDietician:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err := m.store.Set(ctx, userID, action); err != nil {
		return err
	}
	m.transition(ctx, userID, "select", action)
	return nil
}

// HandleText consumes the pending action and runs it with text as input.
// The pending action is taken before any downstream call, so failures
// never leave it behind. A pending find_shops is put back because only a
// location can satisfy it, unless the user picked another action meanwhile.
func (m *Machine) HandleText(ctx context.Context, p Profile, text string) (Result, error) {
	pending, err := m.store.Take(ctx, p.UserID)
	if err != nil {
		return Result{}, err
	}
	m.transition(ctx, p.UserID, "text", pending)

	switch pending {
	case ActionSearchRecipe:
		query := strings.TrimSpace(text)
		return Result{
			Outcome: OutcomeRecipes,
			Query:   query,
			Recipes: m.recipes.Search(ctx, query, p.Diagnoses),
		}, nil

	case ActionAskDietician:
		answer, err := m.advisor.AskDietician(ctx, text, p.Diagnoses, p.Locale)
		if err != nil {
			return Result{
				Outcome:   OutcomeAdvice,
				Advice:    advice.FallbackText(err, p.Locale),
				AdviceErr: err,
			}, nil
		}
		return Result{Outcome: OutcomeAdvice, Advice: answer}, nil

	case ActionFindShops:
		restored, err := m.store.SetIfIdle(ctx, p.UserID, ActionFindShops)
		if err != nil {
			return Result{}, err
		}
		if !restored {
			m.transition(ctx, p.UserID, "restore_skipped", pending)
			return Result{Outcome: OutcomeMenu}, nil
		}
		return Result{Outcome: OutcomeNeedLocation}, nil

	case state.StateIdle:
		return Result{Outcome: OutcomeMenu}, nil

	default:
		m.log.LogAttrs(ctx, slog.LevelWarn, "conversation.unknown_state",
			slog.Int64("user_id", p.UserID),
			slog.String("action", string(pending)),
		)
		return Result{Outcome: OutcomeMenu}, nil
	}
}

// HandleLocation answers a shared location in any state: it lists nearby
// shops, remembers the point for later cost estimates and resolves a
// pending find_shops.
func (m *Machine) HandleLocation(ctx context.Context, p Profile, lat, lon float64) (Result, error) {
	if err := m.store.SetTemp(ctx, p.UserID, tempLocation, formatPoint(lat, lon)); err != nil {
		return Result{}, err
	}
	pending, err := m.store.Get(ctx, p.UserID)
	if err != nil {
		return Result{}, err
	}
	if pending == ActionFindShops {
		if err := m.store.Clear(ctx, p.UserID); err != nil {
			return Result{}, err
		}
		m.transition(ctx, p.UserID, "location", pending)
	}
	return Result{Outcome: OutcomeShops, Shops: m.shops.FindNearby(ctx, lat, lon)}, nil
}

// Cancel drops the pending action and returns what it was.
func (m *Machine) Cancel(ctx context.Context, userID int64) (state.State, error) {
	pending, err := m.store.Take(ctx, userID)
	if err != nil {
		return state.StateIdle, err
	}
	m.transition(ctx, userID, "cancel", pending)
	return pending, nil
}

// LastLocation returns the most recent point the user shared, if still remembered.
func (m *Machine) LastLocation(ctx context.Context, userID int64) (lat, lon float64, ok bool, err error) {
	raw, found, err := m.store.GetTemp(ctx, userID, tempLocation)
	if err != nil || !found {
		return 0, 0, false, err
	}
	lat, lon, ok = parsePoint(raw)
	return lat, lon, ok, nil
}

func (m *Machine) transition(ctx context.Context, userID int64, trigger string, from state.State) {
	if !logger.ShouldSampleDebug() {
		return
	}
	m.log.LogAttrs(ctx, slog.LevelDebug, "conversation.transition",
		slog.Int64("user_id", userID),
		slog.String("op", trigger),
		slog.String("action", string(from)),
	)
}

func formatPoint(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

func parsePoint(s string) (float64, float64, bool) {
	a, b, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(a, 64)
	lon, err2 := strconv.ParseFloat(b, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
