package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"github.com/ItsSkellyHer3/ChatIfy/infrastructure/httpapi"
	"github.com/ItsSkellyHer3/ChatIfy/infrastructure/storage"
	"github.com/ItsSkellyHer3/ChatIfy/infrastructure/ws"
	"github.com/ItsSkellyHer3/ChatIfy/internal"
	"github.com/ItsSkellyHer3/ChatIfy/repositories"
	"github.com/ItsSkellyHer3/ChatIfy/runtime"
	"github.com/ItsSkellyHer3/ChatIfy/runtime/workers"
	"github.com/ItsSkellyHer3/ChatIfy/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Returning the error instead of exiting keeps every defer (database close,
// supervisor drain) running on the way out.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & Seed
	users := repositories.NewUserRepository(db)
	channels := repositories.NewChannelRepository(db)
	messages := repositories.NewMessageRepository(db)
	if config.SeedShowcaseData {
		if err := repositories.SeedShowcase(channels, users, messages, log); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	// 4. Runtime & Service
	registry := runtime.NewRegistry(log)
	broadcaster := runtime.NewBroadcaster(registry, log)
	service := services.NewChatService(log, registry, broadcaster, users, channels, messages,
		config.PresenceWindow, config.PresenceLimit, config.HistoryLimit)

	artifacts, err := storage.NewFileArtifactStore(config.UploadDir, log)
	if err != nil {
		return fmt.Errorf("upload dir setup failed: %w", err)
	}

	// 5. Background Supervision
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reaper := workers.NewReaper(log, users, artifacts,
		config.ReapInterval, config.InactiveUserTTL, config.StaleUploadTTL)
	sup := workers.NewSupervisor(log)
	sup.Add(reaper)
	go sup.Run(ctx)

	// 6. HTTP & WebSocket Server
	handler := httpapi.NewHandler(service, artifacts, log)
	wsHandler := ws.NewHandler(service, config.ConnectionBufferSize, log)
	app := httpapi.NewServer(handler, wsHandler)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := app.Listen(address); err != nil {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	if err := app.Shutdown(); err != nil {
		log.Warn("HTTP shutdown failed", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
