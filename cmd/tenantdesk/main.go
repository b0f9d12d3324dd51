package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/tenantdesk/internal/app"
	"github.com/gosuda/tenantdesk/internal/auth"
	"github.com/gosuda/tenantdesk/internal/config"
	"github.com/gosuda/tenantdesk/internal/inventory"
	"github.com/gosuda/tenantdesk/internal/provision"
	"github.com/gosuda/tenantdesk/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	app.SetupLogging(cfg.Log, os.Stdout)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.SeedOnStart {
		if seedErr := a.Data.SeedInitialData(ctx); seedErr != nil {
			log.Error().Err(seedErr).Msg("seed failed")
		}
	}

	authSvc := auth.NewService(a.Data, auth.Owner{
		Email:    cfg.Owner.Email,
		Password: cfg.Owner.Password,
	}, cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	deps := server.Deps{
		Data:        a.Data,
		Auth:        authSvc,
		Provisioner: provision.NewService(a.Data),
		Inventory:   inventory.NewService(a.Data),
	}
	// A nil *PubSub must stay a nil Subscriber.
	if a.PubSub != nil {
		deps.PubSub = a.PubSub
	}

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, deps)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
