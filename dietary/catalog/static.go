package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Static is an immutable in-memory Source.
type Static struct {
	recipes []Recipe
	shops   []Shop
	prices  PriceTable
}

// NewStatic validates the data and returns a Source over a private copy of it.
func NewStatic(recipes []Recipe, shops []Shop, prices PriceTable) (*Static, error) {
	if err := Validate(recipes, shops, prices); err != nil {
		return nil, err
	}
	cp := make(PriceTable, len(prices))
	for shopID, items := range prices {
		inner := make(map[string]float64, len(items))
		for name, price := range items {
			inner[name] = price
		}
		cp[shopID] = inner
	}
	return &Static{
		recipes: append([]Recipe(nil), recipes...),
		shops:   append([]Shop(nil), shops...),
		prices:  cp,
	}, nil
}

func (s *Static) Recipes() []Recipe  { return s.recipes }
func (s *Static) Shops() []Shop      { return s.shops }
func (s *Static) Prices() PriceTable { return s.prices }

// Find returns the recipe with the given id.
func Find(src Source, id string) (Recipe, bool) {
	for _, r := range src.Recipes() {
		if r.ID == id {
			return r, true
		}
	}
	return Recipe{}, false
}

// fileDocument is the on-disk layout read by LoadFile.
type fileDocument struct {
	Recipes []Recipe                      `yaml:"recipes"`
	Shops   []Shop                        `yaml:"shops"`
	Prices  map[string]map[string]float64 `yaml:"prices"`
}

// LoadFile reads a YAML catalog:
//
//	recipes: [{id, name, macros: {...}, ingredients: [...], ...}]
//	shops:   [{id, name, latitude, longitude, ...}]
//	prices:  {shop_id: {ingredient: price}}
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Static, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewStatic(doc.Recipes, doc.Shops, doc.Prices)
}
