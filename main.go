package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/api"
	"github.com/Rani367/Hativon-sub000/internal/auth"
	"github.com/Rani367/Hativon-sub000/internal/config"
	"github.com/Rani367/Hativon-sub000/internal/db"
	"github.com/Rani367/Hativon-sub000/internal/gateway"
	"github.com/Rani367/Hativon-sub000/internal/logger"
	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/repository"
	"github.com/Rani367/Hativon-sub000/internal/sse"
	"github.com/Rani367/Hativon-sub000/internal/util/compression"
)

const (
	AuthTypeEd25519 = "ed25519"
	AuthTypeClerk   = "clerk"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	l := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	setLoggers(l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(l.WithContext(ctx), cfg, l); err != nil {
		l.Fatal().Err(err).Msg("Server stopped")
	}
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l.With().Str("component", "config").Logger())
	db.SetLogger(l.With().Str("component", "db").Logger())
	repository.SetLogger(l.With().Str("component", "repository").Logger())
	gateway.SetLogger(l.With().Str("component", "gateway").Logger())
	auth.SetLogger(l.With().Str("component", "auth").Logger())
	api.SetLogger(l.With().Str("component", "api").Logger())
}

func newAuthProvider(cfg config.AuthConfig) (auth.AuthProvider, error) {
	switch cfg.Type {
	case AuthTypeEd25519:
		return auth.NewEd25519AuthProvider(os.Getenv("ED25519_PUBKEY"), cfg.HeaderName, model.UserID(cfg.AdminUser))
	case AuthTypeClerk:
		key := os.Getenv("CLERK_API")
		if key == "" {
			return nil, errors.New("CLERK_API is not set")
		}
		return auth.NewClerkAuthProvider(key), nil
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}
}

// newServer wires the draft API on top of an initialised database.
func newServer(cfg *config.Config, database db.DB, provider auth.AuthProvider) (*api.Server, error) {
	compressor, err := compression.New(cfg.Database.Compression)
	if err != nil {
		return nil, err
	}

	store := repository.NewDBDraftStore(database, compressor)
	gw := gateway.NewGateway(store, auth.NewOwnerOrAdmin(model.UserID(cfg.Auth.AdminUser)))

	srv := api.NewServer(gw, provider, sse.NewSSEClients(), cfg.Server)
	gw.SetNotifier(srv.NotifyDraftEvent)
	return srv, nil
}

func run(ctx context.Context, cfg *config.Config, l zerolog.Logger) error {
	database, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	if err := database.InitDB(ctx); err != nil {
		return fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	provider, err := newAuthProvider(cfg.Auth)
	if err != nil {
		return fmt.Errorf(config.ErrCreateProviderFmt, err)
	}

	srv, err := newServer(cfg, database, provider)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		l.Info().Str("addr", httpServer.Addr).Str("auth", cfg.Auth.Type).Str("db", cfg.Database.Driver).Msg("Listening")
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	l.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
