package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mvaldes/quadrant-governance/internal/api"
	"github.com/mvaldes/quadrant-governance/internal/config"
	"github.com/mvaldes/quadrant-governance/internal/repository/postgres"
	"github.com/mvaldes/quadrant-governance/internal/service"
	"github.com/mvaldes/quadrant-governance/internal/wallet"
	"github.com/mvaldes/quadrant-governance/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// Initialize WebSocket hub
	hub := websocket.NewHub()

	// Initialize services
	walletClient := wallet.NewClient(cfg.WalletURL, cfg.WalletTimeout)
	notifier := service.NewFanoutNotifier(service.LogNotifier{}, hub)
	services := service.NewServices(repos, walletClient, notifier, cfg)

	// Background sweeps
	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	sweeper := service.NewSweeper(services.Territory, services.War, repos.Invite, cfg)
	go sweeper.Run(sweepCtx)

	// Initialize router
	router := api.NewRouter(services, hub, cfg)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	stopSweeps()
	hub.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
