package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/dietbot/core/config"
	"github.com/m3rciful/dietbot/core/logger"
)

const (
	waitTimeout  = 30 * time.Second
	waitInterval = 2 * time.Second
	previewFiles = 6
)

// RunMigrations waits for the server and applies every pending up migration
// from cfg.MigrationsDir.
func RunMigrations(ctx context.Context, cfg config.DatabaseConfig) error {
	log := logger.Or(logger.MIG)

	if err := WaitForPostgres(ctx, DSN(cfg), waitTimeout, waitInterval); err != nil {
		log.LogAttrs(ctx, slog.LevelError, "db.wait", slog.String("err", err.Error()))
		return fmt.Errorf("database not ready: %w", err)
	}

	dir, err := filepath.Abs(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}
	files := listMigrationFiles(dir)
	if logger.ShouldSampleDebug() {
		log.LogAttrs(ctx, slog.LevelDebug, "migrate.resolve",
			slog.String("path", dir),
			slog.Int("count", len(files)),
			slog.String("query", preview(files, previewFiles)),
		)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(dir), URL(cfg))
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "migrate.init", slog.String("err", err.Error()))
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := logger.Took(start)

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		log.LogAttrs(ctx, slog.LevelError, "migrate.apply",
			slog.Duration("duration", took),
			slog.String("err", upErr.Error()),
		)
		return fmt.Errorf("apply migrations: %w", upErr)
	}

	toVer, dirty, _ := m.Version()
	applied := appliedBetween(files, uint64(fromVer), uint64(toVer))
	log.LogAttrs(ctx, slog.LevelInfo, "migrate.summary",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Bool("dirty", dirty),
		slog.Int("count", len(applied)),
		slog.String("query", preview(applied, previewFiles)),
		slog.Duration("duration", took),
	)
	return nil
}

// listMigrationFiles returns the sorted *.up.sql names in dir.
func listMigrationFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

func parseVersion(name string) uint64 {
	head, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(head, 10, 64)
	return v
}

// appliedBetween picks the files with from < version <= to.
func appliedBetween(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}

// preview joins at most n names, marking the rest with a count.
func preview(names []string, n int) string {
	if len(names) <= n {
		return strings.Join(names, ",")
	}
	return strings.Join(names[:n], ",") + fmt.Sprintf(",+%d", len(names)-n)
}
