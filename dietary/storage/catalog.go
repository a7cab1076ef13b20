package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/dietary/catalog"
)

type recipeRow struct {
	RecipeID      string  `db:"recipe_id"`
	Position      int     `db:"position"`
	Name          string  `db:"recipe_name"`
	Description   string  `db:"description"`
	Ingredients   string  `db:"ingredients"`
	Instructions  string  `db:"instructions"`
	Calories      float64 `db:"calories"`
	Proteins      float64 `db:"proteins"`
	Fats          float64 `db:"fats"`
	Carbs         float64 `db:"carbs"`
	GlycemicIndex int     `db:"glycemic_index"`
	Purines       float64 `db:"purines"`
	Diabetes      bool    `db:"suitable_for_diabetes"`
	Gout          bool    `db:"suitable_for_gout"`
	Celiac        bool    `db:"suitable_for_celiac"`
}

func (row recipeRow) recipe() (catalog.Recipe, error) {
	r := catalog.Recipe{
		ID:            row.RecipeID,
		Name:          row.Name,
		Description:   row.Description,
		Macros:        catalog.Macros{Calories: row.Calories, Protein: row.Proteins, Fat: row.Fats, Carbs: row.Carbs},
		GlycemicIndex: row.GlycemicIndex,
		Purines:       row.Purines,
		SuitableFor:   catalog.Suitability{Diabetes: row.Diabetes, Gout: row.Gout, Celiac: row.Celiac},
	}
	if err := json.Unmarshal([]byte(row.Ingredients), &r.Ingredients); err != nil {
		return catalog.Recipe{}, fmt.Errorf("recipe %s ingredients: %w", row.RecipeID, err)
	}
	if err := json.Unmarshal([]byte(row.Instructions), &r.Instructions); err != nil {
		return catalog.Recipe{}, fmt.Errorf("recipe %s instructions: %w", row.RecipeID, err)
	}
	return r, nil
}

// RecipeCache keeps recipes in recipe_cache, ordered by position.
type RecipeCache struct {
	db sqlx.ExtContext
}

func NewRecipeCache(db sqlx.ExtContext) *RecipeCache { return &RecipeCache{db: db} }

func (c *RecipeCache) Upsert(ctx context.Context, position int, r catalog.Recipe) error {
	ingredients, err := json.Marshal(r.Ingredients)
	if err != nil {
		return fmt.Errorf("recipe cache upsert %s: %w", r.ID, err)
	}
	instructions, err := json.Marshal(r.Instructions)
	if err != nil {
		return fmt.Errorf("recipe cache upsert %s: %w", r.ID, err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO recipe_cache (recipe_id, position, recipe_name, description, ingredients, instructions,
			calories, proteins, fats, carbs, glycemic_index, purines,
			suitable_for_diabetes, suitable_for_gout, suitable_for_celiac)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (recipe_id) DO UPDATE SET
			position = EXCLUDED.position,
			recipe_name = EXCLUDED.recipe_name,
			description = EXCLUDED.description,
			ingredients = EXCLUDED.ingredients,
			instructions = EXCLUDED.instructions,
			calories = EXCLUDED.calories,
			proteins = EXCLUDED.proteins,
			fats = EXCLUDED.fats,
			carbs = EXCLUDED.carbs,
			glycemic_index = EXCLUDED.glycemic_index,
			purines = EXCLUDED.purines,
			suitable_for_diabetes = EXCLUDED.suitable_for_diabetes,
			suitable_for_gout = EXCLUDED.suitable_for_gout,
			suitable_for_celiac = EXCLUDED.suitable_for_celiac`,
		r.ID, position, r.Name, r.Description, string(ingredients), string(instructions),
		r.Macros.Calories, r.Macros.Protein, r.Macros.Fat, r.Macros.Carbs, r.GlycemicIndex, r.Purines,
		r.SuitableFor.Diabetes, r.SuitableFor.Gout, r.SuitableFor.Celiac,
	)
	return wrap("recipe cache upsert", err)
}

func (c *RecipeCache) All(ctx context.Context) ([]catalog.Recipe, error) {
	var rows []recipeRow
	err := sqlx.SelectContext(ctx, c.db, &rows, `
		SELECT recipe_id, position, recipe_name, description, ingredients, instructions,
			calories, proteins, fats, carbs, glycemic_index, purines,
			suitable_for_diabetes, suitable_for_gout, suitable_for_celiac
		FROM recipe_cache
		ORDER BY position, id`)
	if err != nil {
		return nil, wrap("recipe cache all", err)
	}
	out := make([]catalog.Recipe, 0, len(rows))
	for _, row := range rows {
		r, err := row.recipe()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Shops keeps shop records and their ingredient prices.
type Shops struct {
	db sqlx.ExtContext
}

func NewShops(db sqlx.ExtContext) *Shops { return &Shops{db: db} }

func (s *Shops) Upsert(ctx context.Context, shop catalog.Shop) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shops (place_id, name, latitude, longitude, address, rating, working_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (place_id) DO UPDATE SET
			name = EXCLUDED.name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			address = EXCLUDED.address,
			rating = EXCLUDED.rating,
			working_hours = EXCLUDED.working_hours`,
		shop.ID, shop.Name, shop.Latitude, shop.Longitude, shop.Address, shop.Rating, shop.WorkingHours,
	)
	return wrap("shops upsert", err)
}

type shopRow struct {
	PlaceID      string  `db:"place_id"`
	Name         string  `db:"name"`
	Latitude     float64 `db:"latitude"`
	Longitude    float64 `db:"longitude"`
	Address      string  `db:"address"`
	Rating       float64 `db:"rating"`
	WorkingHours string  `db:"working_hours"`
}

// All returns the shops still marked available, in insertion order.
func (s *Shops) All(ctx context.Context) ([]catalog.Shop, error) {
	var rows []shopRow
	err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT place_id, name, latitude, longitude, address, rating, working_hours
		FROM shops
		WHERE is_available
		ORDER BY id`)
	if err != nil {
		return nil, wrap("shops all", err)
	}
	out := make([]catalog.Shop, 0, len(rows))
	for _, row := range rows {
		out = append(out, catalog.Shop{
			ID:           row.PlaceID,
			Name:         row.Name,
			Latitude:     row.Latitude,
			Longitude:    row.Longitude,
			Address:      row.Address,
			Rating:       row.Rating,
			WorkingHours: row.WorkingHours,
		})
	}
	return out, nil
}

func (s *Shops) SetPrice(ctx context.Context, shopID, ingredient string, price float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shop_prices (place_id, ingredient, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (place_id, ingredient) DO UPDATE SET price = EXCLUDED.price`,
		shopID, ingredient, price,
	)
	return wrap("shops set price", err)
}

func (s *Shops) Prices(ctx context.Context) (catalog.PriceTable, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT place_id, ingredient, price FROM shop_prices`)
	if err != nil {
		return nil, wrap("shops prices", err)
	}
	defer rows.Close()

	out := make(catalog.PriceTable)
	for rows.Next() {
		var (
			shopID, ingredient string
			price              float64
		)
		if err := rows.Scan(&shopID, &ingredient, &price); err != nil {
			return nil, wrap("shops prices", err)
		}
		if out[shopID] == nil {
			out[shopID] = make(map[string]float64)
		}
		out[shopID][ingredient] = price
	}
	return out, wrap("shops prices", rows.Err())
}

// LoadCatalog builds a validated catalog from the cached tables.
func LoadCatalog(ctx context.Context, db sqlx.ExtContext) (*catalog.Static, error) {
	recipes, err := NewRecipeCache(db).All(ctx)
	if err != nil {
		return nil, err
	}
	shopRepo := NewShops(db)
	shops, err := shopRepo.All(ctx)
	if err != nil {
		return nil, err
	}
	prices, err := shopRepo.Prices(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.NewStatic(recipes, shops, prices)
}

// CatalogSeeder copies a catalog source into the database in one transaction.
type CatalogSeeder struct {
	Source catalog.Source
}

func (s CatalogSeeder) Seed(ctx context.Context, db *sqlx.DB) (err error) {
	start := time.Now()
	log := logger.Or(logger.SEED)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap("seed begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			log.LogAttrs(ctx, slog.LevelError, "seed.catalog",
				slog.String("status", "error"),
				slog.String("err", err.Error()),
			)
		}
	}()

	recipes := NewRecipeCache(tx)
	for i, r := range s.Source.Recipes() {
		if err = recipes.Upsert(ctx, i, r); err != nil {
			return err
		}
	}
	shops := NewShops(tx)
	for _, shop := range s.Source.Shops() {
		if err = shops.Upsert(ctx, shop); err != nil {
			return err
		}
	}
	prices := 0
	for _, shop := range s.Source.Shops() {
		table := s.Source.Prices()[shop.ID]
		for _, ingredient := range slices.Sorted(maps.Keys(table)) {
			if err = shops.SetPrice(ctx, shop.ID, ingredient, table[ingredient]); err != nil {
				return err
			}
			prices++
		}
	}
	if err = tx.Commit(); err != nil {
		return wrap("seed commit", err)
	}

	log.LogAttrs(ctx, slog.LevelInfo, "seed.catalog",
		slog.String("status", "ok"),
		slog.Int("count", len(s.Source.Recipes())),
		slog.Int("shops", len(s.Source.Shops())),
		slog.Int("prices", prices),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
