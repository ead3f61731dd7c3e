package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/Rani367/Hativon-sub000/internal/config"
	"github.com/Rani367/Hativon-sub000/internal/db"
	"github.com/Rani367/Hativon-sub000/internal/logger"
	"github.com/Rani367/Hativon-sub000/internal/model"
)

// parseFuzzyTime attempts to parse a timestamp string using multiple formats.
func parseFuzzyTime(timeStr string) (time.Time, error) {
	timeFormats := []string{
		model.VersionLayout,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05-07:00",
		time.RFC3339,
		"2006-01-02 15:04:05", // no timezone, assumed UTC
	}

	for _, format := range timeFormats {
		parsedTime, err := time.Parse(format, timeStr)
		if err == nil {
			return parsedTime.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse time '%s' with any known format", timeStr)
}

// normalize rewrites a timestamp into the fixed width version layout. It
// reports false when the value already is in that layout.
func normalize(value string) (string, bool, error) {
	t, err := parseFuzzyTime(value)
	if err != nil {
		return "", false, err
	}
	out := model.NewVersion(t).String()
	return out, out != value, nil
}

type draftTimes struct {
	ID        string `db:"id"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// main rewrites draft timestamps written by older tools so that every version
// compares correctly in the conditional update.
func main() {
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	dryRun := flag.Bool("dry-run", false, "Only report what would change")
	flag.Parse()

	godotenv.Load()
	l := logger.New("info", logger.FormatConsole)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to load config")
	}

	database, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to open database")
	}
	ctx := l.WithContext(context.Background())
	if err := database.InitDB(ctx); err != nil {
		l.Fatal().Err(err).Msg("Error initializing database")
	}
	defer database.Close()

	var rows []draftTimes
	if err := database.Get().SelectContext(ctx, &rows, "SELECT id, created_at, updated_at FROM drafts"); err != nil {
		l.Fatal().Err(err).Msg("Failed to query drafts")
	}
	l.Info().Int("drafts", len(rows)).Msg("Starting version normalization")

	changed := 0
	for _, r := range rows {
		created, createdChanged, err := normalize(r.CreatedAt)
		if err != nil {
			l.Error().Err(err).Str("draft_id", r.ID).Msg("Could not parse created_at")
			continue
		}
		updated, updatedChanged, err := normalize(r.UpdatedAt)
		if err != nil {
			l.Error().Err(err).Str("draft_id", r.ID).Msg("Could not parse updated_at")
			continue
		}
		if !createdChanged && !updatedChanged {
			continue
		}

		changed++
		if *dryRun {
			l.Info().Str("draft_id", r.ID).Str("updated_at", r.UpdatedAt).Str("normalized", updated).Msg("Would update")
			continue
		}

		// Guarded by the old value so a concurrent save is never overwritten.
		res, err := database.Exec(ctx,
			"UPDATE drafts SET created_at = ?, updated_at = ? WHERE id = ? AND updated_at = ?",
			created, updated, r.ID, r.UpdatedAt)
		if err != nil {
			l.Error().Err(err).Str("draft_id", r.ID).Msg("Failed to update timestamps")
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			l.Warn().Str("draft_id", r.ID).Msg("Draft changed during normalization, skipped")
			continue
		}
		l.Info().Str("draft_id", r.ID).Str("updated_at", updated).Msg("Normalized")
	}

	l.Info().Int("changed", changed).Bool("dry_run", *dryRun).Msg("Version normalization complete")
}
