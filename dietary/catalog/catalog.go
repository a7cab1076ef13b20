// Package catalog holds the read-only reference data the bot works with:
// recipes, shops and the per-shop ingredient price table.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Ingredient is a single line of a recipe.
type Ingredient struct {
	Name   string  `yaml:"name" json:"name"`
	Amount float64 `yaml:"amount" json:"amount"`
	Unit   string  `yaml:"unit" json:"unit"`
}

// Macros are per-serving nutrition values.
type Macros struct {
	Calories float64 `yaml:"calories" json:"calories"`
	Protein  float64 `yaml:"protein" json:"protein"`
	Fat      float64 `yaml:"fat" json:"fat"`
	Carbs    float64 `yaml:"carbs" json:"carbs"`
}

// Suitability flags mark which diagnoses a recipe was written for.
type Suitability struct {
	Diabetes bool `yaml:"diabetes" json:"diabetes"`
	Gout     bool `yaml:"gout" json:"gout"`
	Celiac   bool `yaml:"celiac" json:"celiac"`
}

type Recipe struct {
	ID            string       `yaml:"id"`
	Name          string       `yaml:"name"`
	Description   string       `yaml:"description"`
	Macros        Macros       `yaml:"macros"`
	GlycemicIndex int          `yaml:"glycemic_index"`
	Purines       float64      `yaml:"purines"`
	SuitableFor   Suitability  `yaml:"suitable_for"`
	Ingredients   []Ingredient `yaml:"ingredients"`
	Instructions  []string     `yaml:"instructions"`
}

type Shop struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	Address      string  `yaml:"address"`
	Rating       float64 `yaml:"rating"`
	WorkingHours string  `yaml:"working_hours"`
}

// PriceTable maps shop id to ingredient name to unit price.
// Ingredient names are matched exactly.
type PriceTable map[string]map[string]float64

// Lookup returns the unit price of an ingredient in a shop.
func (p PriceTable) Lookup(shopID, ingredient string) (float64, bool) {
	price, ok := p[shopID][ingredient]
	return price, ok
}

// Diagnoses are the medical flags from a user profile that drive filtering
// and advice context.
type Diagnoses struct {
	Diabetes bool
	Gout     bool
	Celiac   bool
}

// Any reports whether at least one flag is set.
func (d Diagnoses) Any() bool { return d.Diabetes || d.Gout || d.Celiac }

// Source provides catalog data. Implementations return data in a stable
// order; callers must not mutate the returned slices.
type Source interface {
	Recipes() []Recipe
	Shops() []Shop
	Prices() PriceTable
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid catalog")

// Validate checks the invariants every Source must hold: non-empty unique
// ids, non-negative nutrition values and prices, and a price table that
// references only known shops.
func Validate(recipes []Recipe, shops []Shop, prices PriceTable) error {
	var errs []error
	seen := make(map[string]bool, len(recipes))
	for i, r := range recipes {
		id := strings.TrimSpace(r.ID)
		switch {
		case id == "":
			errs = append(errs, fmt.Errorf("recipe #%d: empty id", i))
		case seen[id]:
			errs = append(errs, fmt.Errorf("recipe %s: duplicate id", id))
		}
		seen[id] = true
		m := r.Macros
		if m.Calories < 0 || m.Protein < 0 || m.Fat < 0 || m.Carbs < 0 {
			errs = append(errs, fmt.Errorf("recipe %s: negative macros", id))
		}
		if r.GlycemicIndex < 0 || r.Purines < 0 {
			errs = append(errs, fmt.Errorf("recipe %s: negative glycemic index or purines", id))
		}
		for _, ing := range r.Ingredients {
			if strings.TrimSpace(ing.Name) == "" || ing.Amount < 0 {
				errs = append(errs, fmt.Errorf("recipe %s: bad ingredient %q", id, ing.Name))
			}
		}
	}

	shopIDs := make(map[string]bool, len(shops))
	for i, s := range shops {
		id := strings.TrimSpace(s.ID)
		switch {
		case id == "":
			errs = append(errs, fmt.Errorf("shop #%d: empty id", i))
		case shopIDs[id]:
			errs = append(errs, fmt.Errorf("shop %s: duplicate id", id))
		}
		shopIDs[id] = true
		if s.Latitude < -90 || s.Latitude > 90 || s.Longitude < -180 || s.Longitude > 180 {
			errs = append(errs, fmt.Errorf("shop %s: coordinates out of range", id))
		}
	}

	for shopID, items := range prices {
		if !shopIDs[shopID] {
			errs = append(errs, fmt.Errorf("prices: unknown shop %s", shopID))
		}
		for name, price := range items {
			if price < 0 {
				errs = append(errs, fmt.Errorf("prices: %s/%s is negative", shopID, name))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
