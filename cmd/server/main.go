package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"bell-registry/auth"
	"bell-registry/httpapi"
	"bell-registry/internal"
	"bell-registry/moderation"
	"bell-registry/observability"
	"bell-registry/realtime"
	"bell-registry/repositories"
	"bell-registry/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and open streams.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	auth.SetSigningKey(config.JWTSecret)

	redactChar, err := internal.RedactRune(config.RedactCharacter)
	if err != nil {
		return err
	}

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

	// 3. Repositories & Services
	userRepository := repositories.NewUserRepository(db)
	conversationRepository := repositories.NewConversationRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)

	screener, err := moderation.NewScreener(config.BlockedPhraseList(), redactChar)
	if err != nil {
		return fmt.Errorf("screener setup failed: %w", err)
	}

	registry := realtime.NewConnectionRegistry()
	publisher := realtime.NewFanoutPublisher(log, registry)
	messagingService := services.NewMessagingService(
		log, conversationRepository, messageRepository, userRepository,
		publisher, &screener,
	)
	authService := services.NewAuthService(userRepository, config.AuthTokenDuration)
	stats := observability.NewStatsProvider(log, registry)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. HTTP Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	apiServer := httpapi.NewServer(
		log, authService, messagingService, registry, stats,
		config.HeartbeatInterval,
	)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: the event stream endpoint holds its response
		// open for the connection's lifetime.
	}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final Cleanup
	// Shutdown stops accepting new requests. Open event streams end when
	// their request contexts are cancelled, which Shutdown does not do, so
	// the timeout bounds how long we wait before closing them hard.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("Graceful shutdown expired, closing open streams", "err", err)
		_ = httpServer.Close()
	}
	log.Info("Program stopped cleanly",
		"open_connections", registry.OpenConnections())

	return nil
}
