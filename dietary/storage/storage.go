// Package storage persists users, their food diary and the cached catalog
// in PostgreSQL.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("storage: not found")

// Store bundles the repositories over one connection pool.
type Store struct {
	DB      *sqlx.DB
	Users   *Users
	Diary   *Diary
	Recipes *RecipeCache
	Shops   *Shops
}

func New(db *sqlx.DB) *Store {
	return &Store{
		DB:      db,
		Users:   NewUsers(db),
		Diary:   NewDiary(db),
		Recipes: NewRecipeCache(db),
		Shops:   NewShops(db),
	}
}

// wrap maps sql.ErrNoRows to ErrNotFound and prefixes everything else with op.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
