package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-vault/api"
	"chat-vault/auth"
	"chat-vault/identity"
	"chat-vault/logging"
	"chat-vault/services"
	"chat-vault/snapshot"
	"chat-vault/store"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle so that
// deferred cleanup and the final snapshot flush always execute before exit.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logging.New(config.LogLevel)

	// 2. Snapshot pipeline & state restore. An unreadable artifact is fatal:
	// starting with an empty store over live data would silently drop it.
	var keys snapshot.KeyPair
	if config.EncryptSnapshots {
		pub, err := snapshot.ParseKey(config.SnapshotPublicKey)
		if err != nil {
			return fmt.Errorf("snapshot public key: %w", err)
		}
		priv, err := snapshot.ParseKey(config.SnapshotPrivateKey)
		if err != nil {
			return fmt.Errorf("snapshot private key: %w", err)
		}
		keys = snapshot.KeyPair{Public: pub, Private: priv}
	}
	persister := snapshot.New(config.SnapshotPath, config.EncryptSnapshots, keys, log)

	st := store.New()
	view, err := persister.Load()
	if err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	if view != nil {
		if err := st.Restore(view); err != nil {
			return fmt.Errorf("restoring snapshot: %w", err)
		}
		log.Info("snapshot restored", "path", config.SnapshotPath, "objects", len(view.Objects))
	} else {
		log.Info("no prior snapshot, cold start", "path", config.SnapshotPath)
	}

	// 3. Core components
	ids := identity.New()
	sessions := auth.NewRegistry(st, ids, config.TokenTTL)
	saver := snapshot.NewSaver(st, persister, config.SaveInterval, log)

	authService := services.NewAuthService(st, sessions, auth.NewHasher(), ids, saver)
	chatService := services.NewChatService(st, ids, saver)
	userService := services.NewUserService(st, saver)

	handler := api.NewHandler(authService, chatService, userService, sessions, log)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background saver
	saverCtx, cancelSaver := context.WithCancel(context.Background())
	saverDone := make(chan struct{})
	go func() {
		saver.Run(saverCtx)
		close(saverDone)
	}()

	// 6. HTTP server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: api.NewRouter(handler)}

	errChan := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully...")
	case err := <-errChan:
		cancelSaver()
		<-saverDone
		return err
	}

	// 8. Final Cleanup: stop accepting traffic, then flush the last snapshot.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", "error", err)
	}
	cancelSaver()
	<-saverDone
	log.Info("program stopped cleanly")

	return nil
}
