// Package shops locates nearby shops and estimates ingredient costs from the
// catalog's mock price table.
package shops

import (
	"math"
	"sort"

	"github.com/m3rciful/dietbot/dietary/catalog"
)

// kmPerDegree converts a coordinate delta to kilometres on both axes.
// Longitude is not corrected for latitude.
const kmPerDegree = 111.0

// DefaultRadiusKm is used when the caller has no radius preference.
const DefaultRadiusKm = 2.0

// Distance is a planar approximation in kilometres.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * kmPerDegree
	dLon := (lon2 - lon1) * kmPerDegree
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Nearby is a shop paired with its distance from the query point,
// rounded to two decimals.
type Nearby struct {
	catalog.Shop
	DistanceKm float64
}

// FindNearby returns shops within radiusKm (inclusive, on the unrounded
// distance), nearest first, at most limit entries. Equal rounded distances
// keep catalog order.
func FindNearby(all []catalog.Shop, lat, lon, radiusKm float64, limit int) []Nearby {
	if limit <= 0 {
		return nil
	}
	out := make([]Nearby, 0, len(all))
	for _, s := range all {
		d := Distance(lat, lon, s.Latitude, s.Longitude)
		if d > radiusKm {
			continue
		}
		out = append(out, Nearby{Shop: s, DistanceKm: round2(d)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
