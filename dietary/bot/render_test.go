package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/dietbot/dietary/catalog"
	"github.com/m3rciful/dietbot/dietary/shops"
	"github.com/m3rciful/dietbot/dietary/storage"
)

func TestTextsForUnknownLocaleFallsBack(t *testing.T) {
	assert.Equal(t, locales["ru"].welcome, textsFor("de").welcome)
	assert.Equal(t, locales["en"].welcome, textsFor("en-GB").welcome)
}

func TestRenderWelcomeEscapesName(t *testing.T) {
	got := renderWelcome(textsFor("en"), "<b>x</b>")
	assert.Contains(t, got, "Welcome, &lt;b&gt;x&lt;/b&gt;!")
}

func TestRenderRecipeList(t *testing.T) {
	tx := textsFor("en")
	assert.Equal(t, tx.noRecipes, renderRecipeList(tx, nil))

	got := renderRecipeList(tx, []catalog.Recipe{{
		ID:            "r1",
		Name:          "Fish & chips",
		GlycemicIndex: 40,
		Macros:        catalog.Macros{Calories: 420},
	}})
	assert.Contains(t, got, "<b>1. Fish &amp; chips</b>")
	assert.Contains(t, got, "420 kcal | GI: 40")
}

func TestRecipeListMarkupCarriesIDs(t *testing.T) {
	m := recipeListMarkup([]catalog.Recipe{{ID: "r_001", Name: "A"}, {ID: "r_002", Name: "B"}})
	var data []string
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			assert.Equal(t, cbRecipe, b.Unique)
			data = append(data, b.Data)
		}
	}
	assert.Equal(t, []string{"r_001", "r_002"}, data)
}

func TestRenderRecipeWithEstimate(t *testing.T) {
	tx := textsFor("en")
	r := catalog.Fixtures().Recipes()[0]

	assert.Contains(t, renderRecipe(tx, r, nil), tx.shareForCost)

	est := shops.Estimate{
		HasCheapest: true,
		Cheapest:    shops.ShopPrice{ShopID: "s1", ShopName: "Corner", TotalPrice: 250, FoundCount: 2, TotalCount: 4, PricePerServing: 125},
		Nearby:      []shops.Nearby{{Shop: catalog.Shop{ID: "s1", Name: "Corner"}, DistanceKm: 0.4}},
		Prices:      shops.PriceList{{ShopID: "s1", ShopName: "Corner", TotalPrice: 250, FoundCount: 2, TotalCount: 4}},
	}
	got := renderRecipe(tx, r, &est)
	assert.Contains(t, got, "Cheapest: Corner, 250 ₽")
	assert.Contains(t, got, "2 of 4 found")
	assert.Contains(t, got, "• Corner, 0.4 km: 250 ₽")
	assert.NotContains(t, got, tx.shareForCost)
}

func TestRenderEstimateWithoutPrices(t *testing.T) {
	tx := textsFor("en")
	assert.Contains(t, renderEstimate(tx, shops.Estimate{}), tx.noPrices)
}

func TestRenderShops(t *testing.T) {
	tx := textsFor("en")
	assert.Equal(t, tx.noShops, renderShops(tx, nil))

	got := renderShops(tx, []shops.Nearby{{
		Shop:       catalog.Shop{Name: "Magnit", Address: "Tverskaya 15", Rating: 4.5, WorkingHours: "07:00-23:00"},
		DistanceKm: 1.25,
	}})
	assert.Contains(t, got, "<b>1. Magnit</b> (1.25 km)")
	assert.Contains(t, got, "Tverskaya 15")
	assert.Contains(t, got, "07:00-23:00")
}

func TestRenderDiary(t *testing.T) {
	tx := textsFor("ru")
	assert.Equal(t, tx.diaryEmpty, renderDiary(tx, nil, 10))

	got := renderDiary(tx, []storage.Entry{{
		RecipeName: "Салат",
		Calories:   150,
		DateEaten:  time.Date(2026, 1, 2, 8, 30, 0, 0, time.UTC),
	}}, 10)
	assert.Contains(t, got, "последние 10")
	assert.Contains(t, got, "<b>Салат</b>")
	assert.Contains(t, got, "02.01.2026 08:30")
}

func TestSettingsMarkupReflectsFlags(t *testing.T) {
	tx := textsFor("en")
	m := settingsMarkup(tx, storage.User{HasGout: true})
	var labels []string
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			labels = append(labels, b.Text)
		}
	}
	assert.Contains(t, labels, tx.off+" "+tx.diabetes)
	assert.Contains(t, labels, tx.on+" "+tx.gout)
}

func TestMealName(t *testing.T) {
	assert.Equal(t, "обед", mealName("ru", storage.MealLunch))
	assert.Equal(t, "snack", mealName("en", storage.MealSnack))
	assert.Equal(t, "brunch", mealName("en", "brunch"))
}
