package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rani367/Hativon-sub000/internal/auth"
	"github.com/Rani367/Hativon-sub000/internal/config"
	"github.com/Rani367/Hativon-sub000/internal/db"
	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/gateway"
	"github.com/Rani367/Hativon-sub000/internal/logger"
	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/repository"
	"github.com/Rani367/Hativon-sub000/internal/util"
	"github.com/Rani367/Hativon-sub000/internal/util/compression"
)

// main imports every .md file of a directory as a new draft.
func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	ownerID := flag.String("owner-id", "", "Owner user ID for the drafts")
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	status := flag.String("status", string(model.StatusDraft), "Status of the imported drafts (draft or published)")
	flag.Parse()

	godotenv.Load()
	l := logger.New("info", logger.FormatConsole)
	log.Logger = l

	if *path == "" || *ownerID == "" {
		l.Fatal().Msg("Both --path and --owner-id flags are required")
	}

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
		l.Fatal().Err(err).Msgf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	compressor, err := compression.New(cfg.Database.Compression)
	if err != nil {
		l.Fatal().Err(err).Msg("Invalid compression")
	}

	gw := gateway.NewGateway(repository.NewDBDraftStore(database, compressor), auth.NewOwnerOrAdmin())

	files, err := os.ReadDir(*path)
	if err != nil {
		l.Fatal().Err(err).Str("path", *path).Msg("Error reading directory")
	}

	st := model.Status(*status)
	imported := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}
		id, err := importFile(ctx, gw, filepath.Join(*path, file.Name()), model.UserID(*ownerID), st)
		if err != nil {
			l.Error().Err(err).Str("file", file.Name()).Msg("Error importing file")
			continue
		}
		imported++
		l.Info().Str("file", file.Name()).Str("draft_id", string(id)).Msg("Imported draft")
	}

	l.Info().Int("imported", imported).Msg("Import complete")
}

// buildRequest turns a markdown file into a create request. Front matter
// keys fill the metadata fields and are stripped from the content.
func buildRequest(name string, content []byte, status model.Status) draft.SaveRequest {
	title := strings.TrimSuffix(filepath.Base(name), ".md")
	f := model.Fields{Content: model.StringPtr(string(content))}

	if fm, err := util.GetFrontMatter(content); err == nil {
		if fm.Title != "" {
			title = fm.Title
		}
		if fm.Description != "" {
			f.Description = model.StringPtr(fm.Description)
		}
		if fm.CoverImage != "" {
			f.CoverImage = model.StringPtr(fm.CoverImage)
		}
		if fm.Byline != "" {
			f.CustomAuthor = model.StringPtr(fm.Byline)
		}
		f.Content = model.StringPtr(string(util.Body(content)))
	}
	f.Title = model.StringPtr(title)

	req := draft.NewSaveRequest(nil, f, nil)
	req.Status = &status
	return req
}

func importFile(ctx context.Context, gw *gateway.Gateway, path string, owner model.UserID, status model.Status) (model.DraftID, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	log.Debug().Str("file", path).Str("sha256", util.ContentHash(content)).Msg("Importing")

	res, err := gw.Save(ctx, owner, buildRequest(path, content, status))
	if err != nil {
		return "", err
	}
	return res.ID, nil
}
