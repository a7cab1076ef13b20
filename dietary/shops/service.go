package shops

import (
	"context"
	"log/slog"

	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/dietary/catalog"
)

// Service applies configured radius and result limits to the catalog.
type Service struct {
	src    catalog.Source
	radius float64
	limit  int
	log    *slog.Logger
}

func NewService(src catalog.Source, radiusKm float64, limit int) *Service {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &Service{src: src, radius: radiusKm, limit: limit, log: logger.Or(logger.Shops)}
}

func (s *Service) FindNearby(ctx context.Context, lat, lon float64) []Nearby {
	found := FindNearby(s.src.Shops(), lat, lon, s.radius, s.limit)
	s.log.LogAttrs(ctx, slog.LevelInfo, "shops.nearby",
		slog.Int("count", len(found)),
		slog.Float64("radius_km", s.radius),
	)
	return found
}

func (s *Service) Estimate(ctx context.Context, r catalog.Recipe, lat, lon float64) Estimate {
	est := EstimateRecipeCost(s.src, r, lat, lon)
	attrs := []slog.Attr{
		slog.String("recipe_id", r.ID),
		slog.Int("count", len(est.Nearby)),
	}
	if est.HasCheapest {
		attrs = append(attrs,
			slog.String("shop_id", est.Cheapest.ShopID),
			slog.Float64("total", est.Cheapest.TotalPrice),
		)
	}
	s.log.LogAttrs(ctx, slog.LevelInfo, "shops.estimate", attrs...)
	return est
}
