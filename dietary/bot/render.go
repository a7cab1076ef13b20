package bot

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dietbot/core/telegram/format"
	"github.com/m3rciful/dietbot/core/telegram/keyboard"
	"github.com/m3rciful/dietbot/dietary/advice"
	"github.com/m3rciful/dietbot/dietary/catalog"
	"github.com/m3rciful/dietbot/dietary/shops"
	"github.com/m3rciful/dietbot/dietary/storage"
)

// Callback keys.
const (
	cbSearchRecipe = "search_recipe"
	cbFindShops    = "find_shops"
	cbViewDiary    = "view_diary"
	cbAskDietician = "ask_dietician"
	cbSettings     = "settings"
	cbToggle       = "toggle"
	cbRecipe       = "recipe"
	cbDiaryAdd     = "diary_add"
	cbCancel       = "cancel"
	cbMenu         = "menu"
)

const descriptionPreview = 100

var mealNames = map[string]map[string]string{
	advice.LocaleRU: {
		storage.MealBreakfast: "завтрак",
		storage.MealLunch:     "обед",
		storage.MealDinner:    "ужин",
		storage.MealSnack:     "перекус",
	},
	advice.LocaleEN: {
		storage.MealBreakfast: "breakfast",
		storage.MealLunch:     "lunch",
		storage.MealDinner:    "dinner",
		storage.MealSnack:     "snack",
	},
}

func mealName(locale, meal string) string {
	if name, ok := mealNames[advice.NormalizeLocale(locale)][meal]; ok {
		return name
	}
	return meal
}

func mainMenu(t texts) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: t.btnSearch, Unique: cbSearchRecipe},
		{Text: t.btnShops, Unique: cbFindShops},
		{Text: t.btnDiary, Unique: cbViewDiary},
		{Text: t.btnDietician, Unique: cbAskDietician},
		{Text: t.btnSettings, Unique: cbSettings},
	})
}

func cancelMarkup(t texts) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{keyboard.CancelButton(t.btnCancel, cbCancel)})
}

func renderWelcome(t texts, firstName string) string {
	if firstName == "" {
		firstName = "👤"
	}
	return fmt.Sprintf(t.welcome, format.Escape(firstName)) + "\n\n" +
		t.brand + "\n" + t.welcomeBody + "\n\n" + t.chooseAction
}

func renderRecipeList(t texts, recipes []catalog.Recipe) string {
	if len(recipes) == 0 {
		return t.noRecipes
	}
	var b strings.Builder
	b.WriteString(t.foundRecipes)
	b.WriteString("\n\n")
	for i, r := range recipes {
		fmt.Fprintf(&b, "<b>%d. %s</b>\n", i+1, format.Escape(r.Name))
		fmt.Fprintf(&b, "%s %s | %s: %d\n",
			format.Number(r.Macros.Calories, 0), t.kcal, t.gi, r.GlycemicIndex)
		if r.Description != "" {
			b.WriteString(format.Escape(format.Truncate(r.Description, descriptionPreview)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// recipeListMarkup has one details button per recipe.
func recipeListMarkup(recipes []catalog.Recipe) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(recipes))
	for i, r := range recipes {
		btns = append(btns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%d. %s", i+1, format.Truncate(r.Name, 40)),
			Unique: cbRecipe,
			Data:   r.ID,
		})
	}
	return keyboard.InlineButtons(btns)
}

func renderRecipe(t texts, r catalog.Recipe, est *shops.Estimate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", format.Escape(r.Name))
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n", format.Italic(r.Description))
	}
	fmt.Fprintf(&b, "\n%s %s | %s: %s/%s/%s | %s: %d | %s: %s\n",
		format.Number(r.Macros.Calories, 0), t.kcal,
		t.bju, format.Number(r.Macros.Protein, 1), format.Number(r.Macros.Fat, 1), format.Number(r.Macros.Carbs, 1),
		t.gi, r.GlycemicIndex,
		t.purines, format.Number(r.Purines, 1),
	)

	if len(r.Ingredients) > 0 {
		b.WriteString("\n" + t.ingredients + "\n")
		for _, ing := range r.Ingredients {
			fmt.Fprintf(&b, "• %s %s %s\n", format.Escape(ing.Name), format.Number(ing.Amount, 2), format.Escape(ing.Unit))
		}
	}
	if len(r.Instructions) > 0 {
		b.WriteString("\n" + t.steps + "\n")
		for i, step := range r.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, format.Escape(step))
		}
	}

	b.WriteString("\n")
	if est == nil {
		b.WriteString(t.shareForCost)
		return b.String()
	}
	b.WriteString(renderEstimate(t, *est))
	return b.String()
}

func renderEstimate(t texts, est shops.Estimate) string {
	var b strings.Builder
	b.WriteString(t.costTitle + "\n")
	if !est.HasCheapest {
		b.WriteString(t.noPrices)
	} else {
		c := est.Cheapest
		fmt.Fprintf(&b, t.cheapest, format.Escape(c.ShopName), format.Number(c.TotalPrice, 2))
		fmt.Fprintf(&b, " (%s; %s)",
			fmt.Sprintf(t.found, c.FoundCount, c.TotalCount),
			fmt.Sprintf(t.perServing, format.Number(c.PricePerServing, 2)),
		)
	}
	if len(est.Nearby) > 0 {
		b.WriteString("\n\n" + t.nearby + "\n")
		for _, n := range est.Nearby {
			line := fmt.Sprintf("• %s, %s %s", format.Escape(n.Name), format.Number(n.DistanceKm, 2), t.km)
			if p, ok := est.Prices.ByShop(n.ID); ok && p.FoundCount > 0 {
				line += fmt.Sprintf(": %s ₽", format.Number(p.TotalPrice, 2))
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func recipeMarkup(t texts, id string) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: t.btnAddDiary, Unique: cbDiaryAdd, Data: id}},
		[]keyboard.InlineBtn{{Text: t.btnBack, Unique: cbMenu}},
	)
}

func renderShops(t texts, found []shops.Nearby) string {
	if len(found) == 0 {
		return t.noShops
	}
	var b strings.Builder
	b.WriteString(t.shopsFound)
	b.WriteString("\n\n")
	for i, s := range found {
		fmt.Fprintf(&b, "<b>%d. %s</b> (%s %s)\n", i+1, format.Escape(s.Name), format.Number(s.DistanceKm, 2), t.km)
		if s.Address != "" {
			fmt.Fprintf(&b, "%s\n", format.Escape(s.Address))
		}
		fmt.Fprintf(&b, "⭐ %s", format.Number(s.Rating, 1))
		if s.WorkingHours != "" {
			fmt.Fprintf(&b, " | %s %s", t.hours, format.Escape(s.WorkingHours))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDiary(t texts, entries []storage.Entry, limit int) string {
	if len(entries) == 0 {
		return t.diaryEmpty
	}
	var b strings.Builder
	fmt.Fprintf(&b, t.diaryTitle, limit)
	b.WriteString("\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "<b>%s</b>\n", format.Escape(e.RecipeName))
		fmt.Fprintf(&b, "%s %s | %s: %sg/%sg/%sg\n",
			format.Number(e.Calories, 0), t.kcal, t.bju,
			format.Number(e.Proteins, 1), format.Number(e.Fats, 1), format.Number(e.Carbs, 1),
		)
		fmt.Fprintf(&b, "⏰ %s\n\n", e.DateEaten.Format("02.01.2006 15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func flag(t texts, on bool) string {
	if on {
		return t.on
	}
	return t.off
}

func renderSettings(t texts) string {
	return t.settingsTitle + "\n\n" + t.settingsHint
}

func settingsMarkup(t texts, u storage.User) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: flag(t, u.HasDiabetes) + " " + t.diabetes, Unique: cbToggle, Data: string(storage.DiagnosisDiabetes)},
		{Text: flag(t, u.HasGout) + " " + t.gout, Unique: cbToggle, Data: string(storage.DiagnosisGout)},
		{Text: flag(t, u.HasCeliac) + " " + t.celiac, Unique: cbToggle, Data: string(storage.DiagnosisCeliac)},
		{Text: t.btnBack, Unique: cbMenu},
	})
}

type stats struct {
	Users      int
	Diary      int
	SendErrors uint64
	Build      string
}

func renderStats(t texts, s stats) string {
	return strings.Join([]string{
		t.statsTitle,
		"",
		fmt.Sprintf(t.statsUsers, s.Users),
		fmt.Sprintf(t.statsDiary, s.Diary),
		fmt.Sprintf(t.statsSendErr, s.SendErrors),
		fmt.Sprintf(t.statsBuild, format.Escape(s.Build)),
	}, "\n")
}
