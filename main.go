package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aoe4companion/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("[App] %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.startup(ctx)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: app.router(),
	}

	go func() {
		log.Printf("[Server] Listening on http://%s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[Server] %v", err)
		}
	}()

	waitForSignal(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		// hub first so websocket handlers return before the server drains
		app.hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Server] Shutdown: %v", err)
		}
		cancel()
		app.shutdown(shutdownCtx)
	})
	log.Println("[Server] Stopped")
}

// waitForSignal blocks until SIGINT or SIGTERM, runs shutdown, and exits
// immediately on a second signal
func waitForSignal(shutdown func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	log.Printf("[Signal] Received %v, initiating graceful shutdown...", sig)

	go func() {
		sig := <-sigCh
		log.Printf("[Signal] Received second %v, forcing exit", sig)
		os.Exit(1)
	}()

	shutdown()
}
