package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/dietary/catalog"
)

const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// DefaultDiaryLimit is how many entries the diary view shows.
const DefaultDiaryLimit = 10

// MealTypeAt guesses the meal from the local hour.
func MealTypeAt(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h < 11:
		return MealBreakfast
	case h >= 11 && h < 16:
		return MealLunch
	case h >= 17 && h < 22:
		return MealDinner
	default:
		return MealSnack
	}
}

type Entry struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	RecipeID      string    `db:"recipe_id"`
	RecipeName    string    `db:"recipe_name"`
	Calories      float64   `db:"calories"`
	Proteins      float64   `db:"proteins"`
	Fats          float64   `db:"fats"`
	Carbs         float64   `db:"carbs"`
	GlycemicIndex int       `db:"glycemic_index"`
	Purines       float64   `db:"purines"`
	MealType      string    `db:"meal_type"`
	DateEaten     time.Time `db:"date_eaten"`
	CreatedAt     time.Time `db:"created_at"`
}

// EntryFromRecipe snapshots the recipe's nutrition for userID at time at.
func EntryFromRecipe(userID int64, r catalog.Recipe, at time.Time) Entry {
	return Entry{
		UserID:        userID,
		RecipeID:      r.ID,
		RecipeName:    r.Name,
		Calories:      r.Macros.Calories,
		Proteins:      r.Macros.Protein,
		Fats:          r.Macros.Fat,
		Carbs:         r.Macros.Carbs,
		GlycemicIndex: r.GlycemicIndex,
		Purines:       r.Purines,
		MealType:      MealTypeAt(at),
		DateEaten:     at,
	}
}

const entryColumns = `id, user_id, recipe_id, recipe_name, calories, proteins, fats, carbs,
	glycemic_index, purines, meal_type, date_eaten, created_at`

type Diary struct {
	db  sqlx.ExtContext
	log *slog.Logger
}

func NewDiary(db sqlx.ExtContext) *Diary {
	return &Diary{db: db, log: logger.Or(logger.Diary)}
}

// Add stores e and returns it with the generated id and timestamps.
func (r *Diary) Add(ctx context.Context, e Entry) (Entry, error) {
	if e.MealType == "" {
		e.MealType = MealSnack
	}
	if e.DateEaten.IsZero() {
		e.DateEaten = time.Now()
	}
	var out Entry
	err := sqlx.GetContext(ctx, r.db, &out, `
		INSERT INTO user_diary (user_id, recipe_id, recipe_name, calories, proteins, fats, carbs,
			glycemic_index, purines, meal_type, date_eaten)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+entryColumns,
		e.UserID, e.RecipeID, e.RecipeName, e.Calories, e.Proteins, e.Fats, e.Carbs,
		e.GlycemicIndex, e.Purines, e.MealType, e.DateEaten,
	)
	if err != nil {
		return Entry{}, wrap("diary add", err)
	}
	r.log.LogAttrs(ctx, slog.LevelInfo, "diary.add",
		slog.Int64("user_id", out.UserID),
		slog.String("recipe_id", out.RecipeID),
		slog.String("kind", out.MealType),
	)
	return out, nil
}

// Recent returns the newest entries of a user first.
func (r *Diary) Recent(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultDiaryLimit
	}
	var out []Entry
	err := sqlx.SelectContext(ctx, r.db, &out,
		`SELECT `+entryColumns+` FROM user_diary
		WHERE user_id = $1
		ORDER BY date_eaten DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, wrap("diary recent", err)
	}
	return out, nil
}

func (r *Diary) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, `SELECT count(*) FROM user_diary`); err != nil {
		return 0, wrap("diary count", err)
	}
	return n, nil
}
