// Package bot wires the dietary services to Telegram commands, buttons,
// free text and shared locations.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dietbot/core/buildinfo"
	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/core/telegram"
	"github.com/m3rciful/dietbot/core/telegram/callbacks"
	"github.com/m3rciful/dietbot/core/telegram/commands"
	"github.com/m3rciful/dietbot/core/telegram/format"
	tghelpers "github.com/m3rciful/dietbot/core/telegram/helpers"
	"github.com/m3rciful/dietbot/core/telegram/keyboard"
	"github.com/m3rciful/dietbot/core/telegram/state"
	"github.com/m3rciful/dietbot/dietary/advice"
	"github.com/m3rciful/dietbot/dietary/catalog"
	"github.com/m3rciful/dietbot/dietary/conversation"
	"github.com/m3rciful/dietbot/dietary/shops"
	"github.com/m3rciful/dietbot/dietary/storage"
)

// Meal plan length bounds for /plan.
const (
	DefaultPlanDays = 7
	MaxPlanDays     = 14
)

type UserStore interface {
	GetOrCreate(ctx context.Context, id storage.Identity) (storage.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (storage.User, error)
	Toggle(ctx context.Context, telegramID int64, d storage.Diagnosis) (storage.User, error)
	Count(ctx context.Context) (int, error)
}

type DiaryStore interface {
	Add(ctx context.Context, e storage.Entry) (storage.Entry, error)
	Recent(ctx context.Context, userID int64, limit int) ([]storage.Entry, error)
	Count(ctx context.Context) (int, error)
}

type RecipeBook interface {
	Details(id string) (catalog.Recipe, bool)
}

type CostEstimator interface {
	Estimate(ctx context.Context, r catalog.Recipe, lat, lon float64) shops.Estimate
}

type MealPlanner interface {
	GenerateMealPlan(ctx context.Context, days int, d catalog.Diagnoses, locale string) (string, error)
}

// ErrorCounter reports failed outbound sends; the sender dispatcher is one.
type ErrorCounter interface {
	ErrorCount() uint64
}

// Deps are the collaborators of Handlers. SendErrors and Now are optional.
type Deps struct {
	Users         UserStore
	Diary         DiaryStore
	Recipes       RecipeBook
	Costs         CostEstimator
	Planner       MealPlanner
	Conversation  *conversation.Machine
	SendErrors    ErrorCounter
	DefaultLocale string
	Now           func() time.Time
}

type Handlers struct {
	Deps
}

func New(d Deps) *Handlers {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.DefaultLocale == "" {
		d.DefaultLocale = advice.LocaleRU
	}
	return &Handlers{Deps: d}
}

// Register adds every command, callback and the text and location handlers.
func (h *Handlers) Register(reg *telegram.Registry) error {
	cmds := map[string]commands.Command{
		"/start":  {Handler: h.guard(h.start), Description: "Главное меню"},
		"/help":   {Handler: h.guard(h.help), Description: "Справка"},
		"/plan":   {Handler: h.guard(h.plan), Description: "План питания: /plan 7"},
		"/cancel": {Handler: h.guard(h.cancel), Description: "Отменить текущее действие"},
		"/stats":  {Handler: h.guard(h.stats), Description: "Статистика", AdminOnly: true, Hidden: true},
	}
	var errs []error
	for name, cmd := range cmds {
		errs = append(errs, reg.RegisterCommand(name, cmd))
	}

	cbs := map[string]tele.HandlerFunc{
		cbSearchRecipe: h.selectAction(conversation.ActionSearchRecipe),
		cbFindShops:    h.selectAction(conversation.ActionFindShops),
		cbAskDietician: h.selectAction(conversation.ActionAskDietician),
		cbViewDiary:    h.viewDiary,
		cbSettings:     h.settings,
		cbToggle:       h.toggle,
		cbRecipe:       h.recipe,
		cbDiaryAdd:     h.diaryAdd,
		cbCancel:       h.cancel,
		cbMenu:         h.menu,
	}
	for key, fn := range cbs {
		errs = append(errs, reg.RegisterCallback(key, h.guard(fn)))
	}

	reg.SetCallbackNotFound(h.staleButton)
	reg.SetTextFallback(h.guard(h.text))
	reg.SetLocationHandler(h.guard(h.location))
	return errors.Join(errs...)
}

// guard shows the generic apology when fn fails and still returns the
// error so the router records it.
func (h *Handlers) guard(fn tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		err := fn(c)
		if err == nil {
			return nil
		}
		t := textsFor(h.senderLocale(c))
		if sendErr := tghelpers.SendText(c, t.tryLater); sendErr != nil {
			logger.Warn(tghelpers.BuildContext(c), logger.CompTelegram, "apology.send",
				slog.String("err", sendErr.Error()),
			)
		}
		return err
	}
}

// OnRateLimited tells the user to slow down.
func (h *Handlers) OnRateLimited(c tele.Context) error {
	t := textsFor(h.senderLocale(c))
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: t.rateLimited})
	}
	return tghelpers.SendText(c, t.rateLimited)
}

// staleButton answers presses of buttons from older bot versions.
func (h *Handlers) staleButton(c tele.Context) error {
	return c.Respond(&tele.CallbackResponse{Text: textsFor(h.senderLocale(c)).staleButton})
}

// OnAdminReject answers a non-admin calling an admin command.
func (h *Handlers) OnAdminReject(c tele.Context) error {
	return tghelpers.SendText(c, textsFor(h.senderLocale(c)).adminOnly)
}

func (h *Handlers) senderLocale(c tele.Context) string {
	if u := c.Sender(); u != nil && u.LanguageCode != "" {
		return u.LanguageCode
	}
	return h.DefaultLocale
}

// user loads or registers the sender.
func (h *Handlers) user(c tele.Context) (storage.User, error) {
	s := c.Sender()
	if s == nil {
		return storage.User{}, errors.New("update has no sender")
	}
	return h.Users.GetOrCreate(tghelpers.BuildContext(c), storage.Identity{
		TelegramID:   s.ID,
		Username:     s.Username,
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		LanguageCode: h.senderLocale(c),
	})
}

func (h *Handlers) profile(u storage.User) conversation.Profile {
	return conversation.Profile{UserID: u.TelegramID, Diagnoses: u.Diagnoses(), Locale: u.LanguageCode}
}

func (h *Handlers) start(c tele.Context) error {
	u, err := h.user(c)
	if err != nil {
		return err
	}
	t := textsFor(u.LanguageCode)
	return tghelpers.SendHTML(c, renderWelcome(t, u.FirstName), mainMenu(t))
}

func (h *Handlers) help(c tele.Context) error {
	t := textsFor(h.senderLocale(c))
	return tghelpers.SendHTML(c, t.help, mainMenu(t))
}

func (h *Handlers) menu(c tele.Context) error {
	t := textsFor(h.senderLocale(c))
	return tghelpers.EditOrSendHTML(c, t.menuHint, mainMenu(t))
}

// planDays reads the optional day count; bad input falls back to the default.
func planDays(args []string) int {
	if len(args) == 0 {
		return DefaultPlanDays
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return DefaultPlanDays
	}
	return min(max(n, 1), MaxPlanDays)
}

func (h *Handlers) plan(c tele.Context) error {
	u, err := h.user(c)
	if err != nil {
		return err
	}
	t := textsFor(u.LanguageCode)
	days := planDays(c.Args())
	if err := tghelpers.SendText(c, fmt.Sprintf(t.planBuilding, days)); err != nil {
		return err
	}
	_ = c.Notify(tele.Typing)

	ctx := tghelpers.BuildContext(c)
	answer, err := h.Planner.GenerateMealPlan(ctx, days, u.Diagnoses(), u.LanguageCode)
	if err != nil {
		logger.Warn(ctx, logger.CompAdvice, "plan.fallback", slog.String("err", err.Error()))
		return tghelpers.SendText(c, advice.MealPlanFallbackText(u.LanguageCode))
	}
	return tghelpers.SendHTML(c, format.Escape(answer))
}

func (h *Handlers) cancel(c tele.Context) error {
	s := c.Sender()
	if s == nil {
		return nil
	}
	t := textsFor(h.senderLocale(c))
	prev, err := h.Conversation.Cancel(tghelpers.BuildContext(c), s.ID)
	if err != nil {
		return err
	}
	msg := t.cancelled
	if prev == state.StateIdle {
		msg = t.nothingToDrop
	}
	return tghelpers.EditOrSendHTML(c, msg+"\n\n"+t.menuHint, mainMenu(t))
}

func (h *Handlers) stats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	s := stats{Build: buildinfo.String()}
	var err error
	if s.Users, err = h.Users.Count(ctx); err != nil {
		return err
	}
	if s.Diary, err = h.Diary.Count(ctx); err != nil {
		return err
	}
	if h.SendErrors != nil {
		s.SendErrors = h.SendErrors.ErrorCount()
	}
	return tghelpers.SendHTML(c, renderStats(textsFor(h.senderLocale(c)), s))
}

// selectAction arms a menu action and prompts for its input.
func (h *Handlers) selectAction(action state.State) tele.HandlerFunc {
	return func(c tele.Context) error {
		s := c.Sender()
		if s == nil {
			return nil
		}
		if err := h.Conversation.Select(tghelpers.BuildContext(c), s.ID, action); err != nil {
			return err
		}
		t := textsFor(h.senderLocale(c))
		switch action {
		case conversation.ActionFindShops:
			return tghelpers.SendHTML(c, t.askLocation, keyboard.RequestLocation(t.btnLocation))
		case conversation.ActionAskDietician:
			return tghelpers.SendHTML(c, t.askQuestion, cancelMarkup(t))
		default:
			return tghelpers.SendHTML(c, t.askQuery, cancelMarkup(t))
		}
	}
}

func (h *Handlers) viewDiary(c tele.Context) error {
	s := c.Sender()
	if s == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	u, err := h.Users.GetByTelegramID(ctx, s.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return tghelpers.SendHTML(c, renderDiary(textsFor(h.senderLocale(c)), nil, storage.DefaultDiaryLimit))
	case err != nil:
		return err
	}
	entries, err := h.Diary.Recent(ctx, u.TelegramID, storage.DefaultDiaryLimit)
	if err != nil {
		return err
	}
	return tghelpers.SendHTML(c, renderDiary(textsFor(u.LanguageCode), entries, storage.DefaultDiaryLimit))
}

func (h *Handlers) settings(c tele.Context) error {
	u, err := h.user(c)
	if err != nil {
		return err
	}
	t := textsFor(u.LanguageCode)
	return tghelpers.EditOrSendHTML(c, renderSettings(t), settingsMarkup(t, u))
}

func (h *Handlers) toggle(c tele.Context) error {
	raw, err := callbacks.RequirePayload(c)
	if err != nil {
		return err
	}
	d, err := storage.ParseDiagnosis(raw)
	if err != nil {
		return err
	}
	u, err := h.user(c)
	if err != nil {
		return err
	}
	u, err = h.Users.Toggle(tghelpers.BuildContext(c), u.TelegramID, d)
	if err != nil {
		return err
	}
	t := textsFor(u.LanguageCode)
	return tghelpers.EditOrSendHTML(c, renderSettings(t), settingsMarkup(t, u))
}

func (h *Handlers) recipe(c tele.Context) error {
	id, err := callbacks.RequirePayload(c)
	if err != nil {
		return err
	}
	t := textsFor(h.senderLocale(c))
	r, ok := h.Recipes.Details(id)
	if !ok {
		return tghelpers.SendText(c, t.notFound)
	}

	ctx := tghelpers.BuildContext(c)
	var est *shops.Estimate
	if s := c.Sender(); s != nil {
		lat, lon, known, err := h.Conversation.LastLocation(ctx, s.ID)
		if err != nil {
			return err
		}
		if known {
			e := h.Costs.Estimate(ctx, r, lat, lon)
			est = &e
		}
	}
	return tghelpers.SendHTML(c, renderRecipe(t, r, est), recipeMarkup(t, r.ID))
}

func (h *Handlers) diaryAdd(c tele.Context) error {
	id, err := callbacks.RequirePayload(c)
	if err != nil {
		return err
	}
	u, err := h.user(c)
	if err != nil {
		return err
	}
	t := textsFor(u.LanguageCode)
	r, ok := h.Recipes.Details(id)
	if !ok {
		return tghelpers.SendText(c, t.notFound)
	}
	e, err := h.Diary.Add(tghelpers.BuildContext(c), storage.EntryFromRecipe(u.TelegramID, r, h.Now()))
	if err != nil {
		return err
	}
	return tghelpers.SendHTML(c, fmt.Sprintf(t.diaryAdded, format.Escape(e.RecipeName), mealName(u.LanguageCode, e.MealType)))
}

func (h *Handlers) text(c tele.Context) error {
	u, err := h.user(c)
	if err != nil {
		if s := c.Sender(); s != nil {
			if _, cerr := h.Conversation.Cancel(tghelpers.BuildContext(c), s.ID); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
		return err
	}
	t := textsFor(u.LanguageCode)
	_ = c.Notify(tele.Typing)

	ctx := tghelpers.BuildContext(c)
	res, err := h.Conversation.HandleText(ctx, h.profile(u), c.Text())
	if err != nil {
		return err
	}
	switch res.Outcome {
	case conversation.OutcomeRecipes:
		if len(res.Recipes) == 0 {
			return tghelpers.SendHTML(c, t.noRecipes, mainMenu(t))
		}
		return tghelpers.SendHTML(c, renderRecipeList(t, res.Recipes), recipeListMarkup(res.Recipes))
	case conversation.OutcomeAdvice:
		if res.AdviceErr != nil {
			logger.Warn(ctx, logger.CompAdvice, "advice.fallback", slog.String("err", res.AdviceErr.Error()))
		}
		return tghelpers.SendHTML(c, format.Escape(res.Advice), mainMenu(t))
	case conversation.OutcomeNeedLocation:
		return tghelpers.SendHTML(c, t.needLocation, keyboard.RequestLocation(t.btnLocation))
	default:
		return tghelpers.SendHTML(c, t.menuHint, mainMenu(t))
	}
}

func (h *Handlers) location(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Location == nil {
		return nil
	}
	u, err := h.user(c)
	if err != nil {
		return err
	}
	res, err := h.Conversation.HandleLocation(tghelpers.BuildContext(c), h.profile(u),
		float64(msg.Location.Lat), float64(msg.Location.Lng))
	if err != nil {
		return err
	}
	return tghelpers.SendHTML(c, renderShops(textsFor(u.LanguageCode), res.Shops), keyboard.RemoveKeyboard())
}
