package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/dietary/catalog"
)

// Diagnosis names a toggleable profile flag.
type Diagnosis string

const (
	DiagnosisDiabetes Diagnosis = "diabetes"
	DiagnosisGout     Diagnosis = "gout"
	DiagnosisCeliac   Diagnosis = "celiac"
)

var ErrUnknownDiagnosis = errors.New("unknown diagnosis")

// diagnosisColumns whitelists the columns Toggle may touch.
var diagnosisColumns = map[Diagnosis]string{
	DiagnosisDiabetes: "has_diabetes",
	DiagnosisGout:     "has_gout",
	DiagnosisCeliac:   "has_celiac",
}

// ParseDiagnosis accepts a flag name in any case.
func ParseDiagnosis(s string) (Diagnosis, error) {
	d := Diagnosis(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := diagnosisColumns[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDiagnosis, s)
	}
	return d, nil
}

type User struct {
	ID           int64     `db:"id"`
	TelegramID   int64     `db:"telegram_id"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	LanguageCode string    `db:"language_code"`
	IsActive     bool      `db:"is_active"`
	HasDiabetes  bool      `db:"has_diabetes"`
	HasGout      bool      `db:"has_gout"`
	HasCeliac    bool      `db:"has_celiac"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u User) Diagnoses() catalog.Diagnoses {
	return catalog.Diagnoses{Diabetes: u.HasDiabetes, Gout: u.HasGout, Celiac: u.HasCeliac}
}

// Identity is what Telegram tells us about a user.
type Identity struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

const userColumns = `id, telegram_id, username, first_name, last_name, language_code,
	is_active, has_diabetes, has_gout, has_celiac, created_at, updated_at`

type Users struct {
	db  sqlx.ExtContext
	log *slog.Logger
}

func NewUsers(db sqlx.ExtContext) *Users {
	return &Users{db: db, log: logger.Or(logger.Users)}
}

type upsertedUser struct {
	User
	Inserted bool `db:"inserted"`
}

// GetOrCreate returns the user with id.TelegramID, inserting it on first
// contact. Names are refreshed on every call; diagnoses are left alone.
func (r *Users) GetOrCreate(ctx context.Context, id Identity) (User, error) {
	lang := id.LanguageCode
	if lang == "" {
		lang = "ru"
	}
	var row upsertedUser
	err := sqlx.GetContext(ctx, r.db, &row, `
		INSERT INTO users (telegram_id, username, first_name, last_name, language_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = now()
		RETURNING `+userColumns+`, (xmax = 0) AS inserted`,
		id.TelegramID, id.Username, id.FirstName, id.LastName, lang,
	)
	if err != nil {
		return User{}, wrap("users get or create", err)
	}
	if row.Inserted {
		r.log.LogAttrs(ctx, slog.LevelInfo, "users.created",
			slog.Int64("user_id", row.TelegramID),
			slog.String("locale", row.LanguageCode),
		)
	}
	return row.User, nil
}

func (r *Users) GetByTelegramID(ctx context.Context, telegramID int64) (User, error) {
	var u User
	err := sqlx.GetContext(ctx, r.db, &u,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return User{}, wrap("users get", err)
	}
	return u, nil
}

// Toggle flips one diagnosis flag and returns the updated user.
func (r *Users) Toggle(ctx context.Context, telegramID int64, d Diagnosis) (User, error) {
	col, ok := diagnosisColumns[d]
	if !ok {
		return User{}, fmt.Errorf("users toggle: %w: %q", ErrUnknownDiagnosis, d)
	}
	var u User
	err := sqlx.GetContext(ctx, r.db, &u,
		`UPDATE users SET `+col+` = NOT `+col+`, updated_at = now()
		WHERE telegram_id = $1
		RETURNING `+userColumns, telegramID)
	if err != nil {
		return User{}, wrap("users toggle", err)
	}
	r.log.LogAttrs(ctx, slog.LevelInfo, "users.toggle",
		slog.Int64("user_id", telegramID),
		slog.String("action", string(d)),
		slog.Bool("diabetes", u.HasDiabetes),
		slog.Bool("gout", u.HasGout),
		slog.Bool("celiac", u.HasCeliac),
	)
	return u, nil
}

func (r *Users) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, `SELECT count(*) FROM users`); err != nil {
		return 0, wrap("users count", err)
	}
	return n, nil
}
