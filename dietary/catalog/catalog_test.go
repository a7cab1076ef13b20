package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixturesAreValid(t *testing.T) {
	src := Fixtures()

	require.Len(t, src.Recipes(), 3)
	require.Len(t, src.Shops(), 3)
	assert.Equal(t, "r_001", src.Recipes()[0].ID)
	assert.Equal(t, "shop_003", src.Shops()[2].ID)

	price, ok := src.Prices().Lookup("shop_002", "Куриное филе")
	require.True(t, ok)
	assert.Equal(t, 269.0, price)

	_, ok = src.Prices().Lookup("shop_002", "Морская рыба")
	assert.False(t, ok)
}

func TestFind(t *testing.T) {
	src := Fixtures()

	r, ok := Find(src, "r_003")
	require.True(t, ok)
	assert.Equal(t, "Рыба на гриле", r.Name)

	_, ok = Find(src, "r_404")
	assert.False(t, ok)
}

func TestValidateRejectsBadData(t *testing.T) {
	shops := []Shop{{ID: "s1", Latitude: 55, Longitude: 37}}

	cases := map[string]struct {
		recipes []Recipe
		shops   []Shop
		prices  PriceTable
	}{
		"duplicate recipe id": {
			recipes: []Recipe{{ID: "r"}, {ID: "r"}},
			shops:   shops,
		},
		"empty recipe id": {
			recipes: []Recipe{{ID: " "}},
			shops:   shops,
		},
		"negative macros": {
			recipes: []Recipe{{ID: "r", Macros: Macros{Calories: -1}}},
			shops:   shops,
		},
		"negative purines": {
			recipes: []Recipe{{ID: "r", Purines: -5}},
			shops:   shops,
		},
		"duplicate shop": {
			shops: []Shop{{ID: "s1"}, {ID: "s1"}},
		},
		"latitude out of range": {
			shops: []Shop{{ID: "s1", Latitude: 91}},
		},
		"price for unknown shop": {
			shops:  shops,
			prices: PriceTable{"s2": {"milk": 1}},
		},
		"negative price": {
			shops:  shops,
			prices: PriceTable{"s1": {"milk": -1}},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewStatic(tc.recipes, tc.shops, tc.prices)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestNewStaticCopiesPrices(t *testing.T) {
	prices := PriceTable{"s1": {"milk": 80}}
	src, err := NewStatic(nil, []Shop{{ID: "s1"}}, prices)
	require.NoError(t, err)

	prices["s1"]["milk"] = 1
	got, _ := src.Prices().Lookup("s1", "milk")
	assert.Equal(t, 80.0, got)
}

func TestLoadFile(t *testing.T) {
	doc := `
recipes:
  - id: oat
    name: Oatmeal
    macros: {calories: 150, protein: 5, fat: 3, carbs: 27}
    glycemic_index: 55
    purines: 10
    suitable_for: {diabetes: true, gout: true, celiac: false}
    ingredients:
      - {name: Oats, amount: 50, unit: g}
    instructions: [Boil]
shops:
  - {id: s1, name: Corner, latitude: 55.75, longitude: 37.61, rating: 4.1}
prices:
  s1: {Oats: 60}
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	src, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, src.Recipes(), 1)

	r := src.Recipes()[0]
	assert.Equal(t, 55, r.GlycemicIndex)
	assert.False(t, r.SuitableFor.Celiac)
	assert.Equal(t, []Ingredient{{Name: "Oats", Amount: 50, Unit: "g"}}, r.Ingredients)
	price, ok := src.Prices().Lookup("s1", "Oats")
	assert.True(t, ok)
	assert.Equal(t, 60.0, price)
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prices:\n  ghost: {x: 1}\n"), 0o600))

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrInvalid)
}
