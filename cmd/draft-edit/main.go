// Command draft-edit edits a newsletter draft as a local markdown file. Every
// change to the file is backed up locally and autosaved to the server.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rani367/Hativon-sub000/internal/autosave"
	"github.com/Rani367/Hativon-sub000/internal/backup"
	"github.com/Rani367/Hativon-sub000/internal/backup/kv"
	"github.com/Rani367/Hativon-sub000/internal/client"
	"github.com/Rani367/Hativon-sub000/internal/config"
	"github.com/Rani367/Hativon-sub000/internal/editor"
	"github.com/Rani367/Hativon-sub000/internal/logger"
	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/util/compression"
)

var editLogger = zerolog.Nop()

func main() {
	godotenv.Load()

	server := flag.String("server", "http://localhost:12600", "Base URL of the draft server")
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	keyFile := flag.String("key", os.Getenv("ED25519_PRIVKEY_FILE"), "Ed25519 private key (PEM) used to sign the auth challenge")
	token := flag.String("token", os.Getenv("CLERK_SESSION_TOKEN"), "Clerk session token, used when no key is given")
	draftID := flag.String("id", "", "Draft to edit; empty starts a new draft")
	file := flag.String("file", "", "Markdown file holding the draft")
	poll := flag.Duration("poll", 250*time.Millisecond, "How often the file is checked for changes")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Logger = l
	editLogger = l.With().Str("component", "draft-edit").Logger()
	backup.SetLogger(l.With().Str("component", "backup").Logger())
	autosave.SetLogger(l.With().Str("component", "autosave").Logger())
	client.SetLogger(l.With().Str("component", "client").Logger())
	editor.SetLogger(l.With().Str("component", "editor").Logger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := clientOptions(*keyFile, *token, cfg.Auth.HeaderName)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to configure authentication")
	}
	cl := client.New(*server, opts...)
	if err := cl.Authenticate(ctx); err != nil {
		l.Fatal().Err(err).Msg("Failed to authenticate")
	}

	backups, err := openBackups(cfg.Autosave.BackupDir)
	if err != nil {
		l.Fatal().Err(err).Str("dir", cfg.Autosave.BackupDir).Msg("Failed to open backup store")
	}

	if err := edit(ctx, cl, backups, cfg.Autosave, *draftID, *file, *poll); err != nil {
		l.Fatal().Err(err).Msg("Editing failed")
	}
}

func clientOptions(keyFile, token, headerName string) ([]client.Option, error) {
	switch {
	case keyFile != "":
		key, err := client.LoadPrivateKey(keyFile)
		if err != nil {
			return nil, fmt.Errorf("error loading private key: %w", err)
		}
		return []client.Option{client.WithPrivateKey(key, headerName)}, nil
	case token != "":
		return []client.Option{client.WithBearerToken(token)}, nil
	default:
		return nil, errors.New("either --key or --token is required")
	}
}

func openBackups(dir string) (*backup.Store, error) {
	store, err := kv.NewFileStore(dir, backup.Namespace, compression.ZstdCompressor{})
	if err != nil {
		return nil, err
	}
	return backup.NewStore(store), nil
}

func edit(ctx context.Context, cl *client.Client, backups *backup.Store, cfg config.AutosaveConfig, draftID, file string, poll time.Duration) error {
	term := &ui{out: os.Stdout}

	var id *model.DraftID
	if draftID != "" {
		v := model.DraftID(draftID)
		id = &v
	}

	a := &app{ui: term, events: cl}
	session, recovered, err := editor.Open(ctx, cl, backups, id, editor.Options{
		Debounce:       cfg.Debounce.Std(),
		RequestTimeout: cfg.RequestTimeout.Std(),
		OnStatus: func(o autosave.Outcome) {
			term.println(renderStatus(o))
			if o.Status == autosave.StatusSaved && o.Response != nil {
				a.watch(ctx, o.Response.ID)
			}
		},
	})
	if err != nil {
		return err
	}
	defer session.Close()

	a.session = session
	a.doc = newFileWatcher(file, poll, func(f model.Fields) {
		if err := session.Edit(f); err != nil {
			editLogger.Error().Err(err).Msg("Failed to record edit")
		}
	})

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	if err := a.mount(ctx, recovered, lines); err != nil {
		return err
	}
	if id := session.ID(); id != nil {
		a.watch(ctx, *id)
	}
	term.info("editing %s, type 'help' for commands", filepath.Base(file))
	go a.doc.run(ctx)

	for {
		term.prompt()
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := a.handle(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				term.println(statusStyles[autosave.StatusError].Render(err.Error()))
			}
		}
	}
}

// mount brings the document on disk in line with the session. A recovered
// backup is offered first; otherwise an opened draft replaces the file and a
// new draft starts from whatever the file already holds.
func (a *app) mount(ctx context.Context, recovered *backup.LocalBackup, lines <-chan string) error {
	if recovered != nil {
		a.ui.info("found unsaved edits from %s, restore them? [y/n]", recovered.Timestamp.Local().Format(time.DateTime))
		a.ui.prompt()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return errors.New("input closed before the backup was handled")
			}
			if answer := strings.ToLower(strings.TrimSpace(line)); answer == "y" || answer == "yes" {
				if err := a.session.Restore(recovered); err != nil {
					return err
				}
				return a.doc.write(recovered.Data)
			}
			if err := a.session.Discard(ctx); err != nil {
				return err
			}
		}
	}

	if a.session.ID() != nil {
		return a.doc.write(a.session.Current())
	}
	return a.doc.check()
}
