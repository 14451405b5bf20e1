package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pokescan/backend/internal/api"
	"github.com/pokescan/backend/internal/database"
	"github.com/pokescan/backend/internal/services"
)

func main() {
	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./pokescan.db"
	}

	// Initialize database
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Card data provider (pokemontcg.io, free key: 20k req/day)
	provider := services.NewPokemonTCGService(os.Getenv("POKEMON_TCG_API_KEY"))

	// Scanned image storage
	imageStorage := services.NewImageStorageService(os.Getenv("SCANNED_IMAGES_DIR"))

	// Scan + trend services
	scanService := services.NewScanService(database.GetDB(), imageStorage)
	trendService := services.NewTrendService(database.GetDB())

	// Daily snapshot worker configuration
	snapshotHour := 6
	if hourStr := os.Getenv("SNAPSHOT_HOUR"); hourStr != "" {
		if hour, err := strconv.Atoi(hourStr); err == nil {
			snapshotHour = hour
		}
	}
	paceMS := 0
	if paceStr := os.Getenv("SNAPSHOT_PACE_MS"); paceStr != "" {
		if pace, err := strconv.Atoi(paceStr); err == nil {
			paceMS = pace
		}
	}
	snapshotService := services.NewSnapshotService(database.GetDB(), provider, snapshotHour, paceMS)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start snapshot worker in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in snapshot worker: %v - restarting in 30 seconds", r)
					}
				}()
				snapshotService.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return // Graceful shutdown
			case <-time.After(30 * time.Second):
				log.Println("Snapshot worker restarting after panic recovery...")
			}
		}
	}()

	// Setup router
	router := api.SetupRouter(provider, scanService, snapshotService, trendService)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the snapshot worker
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
