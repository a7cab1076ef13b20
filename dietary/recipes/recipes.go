// Package recipes searches the catalog and filters results by diagnosis.
package recipes

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/dietary/catalog"
)

// Thresholds above which a recipe is excluded for a diagnosis.
const (
	MaxGlycemicIndexDiabetes = 60
	MaxPurinesGout           = 100
)

// Search returns recipes whose name or any ingredient name contains query,
// case-insensitively, that also pass every rule enabled in d. Catalog order
// is preserved and the result is truncated to limit; limit <= 0 yields
// nothing. An empty query matches every recipe.
func Search(all []catalog.Recipe, query string, d catalog.Diagnoses, limit int) []catalog.Recipe {
	if limit <= 0 {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]catalog.Recipe, 0, min(limit, len(all)))
	for _, r := range all {
		if !matches(r, q) || !Allowed(r, d) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}

func matches(r catalog.Recipe, q string) bool {
	if strings.Contains(strings.ToLower(r.Name), q) {
		return true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), q) {
			return true
		}
	}
	return false
}

// Allowed applies the diagnosis rules independently; all enabled rules must pass.
func Allowed(r catalog.Recipe, d catalog.Diagnoses) bool {
	if d.Diabetes && r.GlycemicIndex > MaxGlycemicIndexDiabetes {
		return false
	}
	if d.Gout && r.Purines > MaxPurinesGout {
		return false
	}
	if d.Celiac && !r.SuitableFor.Celiac {
		return false
	}
	return true
}

// Service binds Search to a catalog source and a result limit.
type Service struct {
	src   catalog.Source
	limit int
	log   *slog.Logger
}

func NewService(src catalog.Source, limit int) *Service {
	return &Service{src: src, limit: limit, log: logger.Or(logger.Recipes)}
}

// Search runs the filter with the configured limit.
func (s *Service) Search(ctx context.Context, query string, d catalog.Diagnoses) []catalog.Recipe {
	found := Search(s.src.Recipes(), query, d, s.limit)
	s.log.LogAttrs(ctx, slog.LevelInfo, "recipes.search",
		slog.String("query", logger.SanitizeLimit(query, 64)),
		slog.Int("count", len(found)),
		slog.Bool("diabetes", d.Diabetes),
		slog.Bool("gout", d.Gout),
		slog.Bool("celiac", d.Celiac),
	)
	return found
}

// Details looks a recipe up by id.
func (s *Service) Details(id string) (catalog.Recipe, bool) {
	return catalog.Find(s.src, id)
}
