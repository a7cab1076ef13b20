package shops

import "github.com/m3rciful/dietbot/dietary/catalog"

// ShopPrice is the cost of an ingredient list at one shop.
type ShopPrice struct {
	ShopID     string
	ShopName   string
	Address    string
	Rating     float64
	TotalPrice float64
	// FoundCount counts ingredients present in the shop's price table.
	FoundCount int
	TotalCount int
	// PricePerServing divides by TotalCount, so unpriced ingredients
	// lower the average.
	PricePerServing float64
}

// PriceList holds one entry per shop in catalog order.
type PriceList []ShopPrice

// ByShop finds the entry for a shop id.
func (l PriceList) ByShop(id string) (ShopPrice, bool) {
	for _, p := range l {
		if p.ShopID == id {
			return p, true
		}
	}
	return ShopPrice{}, false
}

// PriceAcrossShops prices ingredients at every shop. A price table entry
// of zero counts as found.
func PriceAcrossShops(all []catalog.Shop, prices catalog.PriceTable, ingredients []catalog.Ingredient) PriceList {
	out := make(PriceList, 0, len(all))
	for _, s := range all {
		sp := ShopPrice{
			ShopID:     s.ID,
			ShopName:   s.Name,
			Address:    s.Address,
			Rating:     s.Rating,
			TotalCount: len(ingredients),
		}
		for _, ing := range ingredients {
			if price, ok := prices.Lookup(s.ID, ing.Name); ok {
				sp.TotalPrice += price
				sp.FoundCount++
			}
		}
		if sp.TotalCount > 0 {
			sp.PricePerServing = sp.TotalPrice / float64(sp.TotalCount)
		}
		out = append(out, sp)
	}
	return out
}

// CheapestShop returns the entry with the lowest total; the first one wins a tie.
func CheapestShop(list PriceList) (ShopPrice, bool) {
	if len(list) == 0 {
		return ShopPrice{}, false
	}
	best := list[0]
	for _, p := range list[1:] {
		if p.TotalPrice < best.TotalPrice {
			best = p
		}
	}
	return best, true
}

// Estimate is the full cost picture for one recipe.
type Estimate struct {
	RecipeName  string
	Cheapest    ShopPrice
	HasCheapest bool
	// Nearby is computed from the location only and may not include Cheapest.
	Nearby []Nearby
	Prices PriceList
}

// NearbyForEstimate caps the nearby list shown with a cost estimate.
const NearbyForEstimate = 3

// EstimateRecipeCost combines pricing and location lookups for a recipe.
func EstimateRecipeCost(src catalog.Source, r catalog.Recipe, lat, lon float64) Estimate {
	prices := PriceAcrossShops(src.Shops(), src.Prices(), r.Ingredients)
	cheapest, ok := CheapestShop(prices)
	name := r.Name
	if name == "" {
		name = "Unknown"
	}
	return Estimate{
		RecipeName:  name,
		Cheapest:    cheapest,
		HasCheapest: ok,
		Nearby:      FindNearby(src.Shops(), lat, lon, DefaultRadiusKm, NearbyForEstimate),
		Prices:      prices,
	}
}
