package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sujalbistaa/questlog/internal/board"
	"github.com/sujalbistaa/questlog/internal/config"
	routes "github.com/sujalbistaa/questlog/internal/http"
	"github.com/sujalbistaa/questlog/internal/store"
	"github.com/sujalbistaa/questlog/internal/ws"
)

func main() {
	// Production sets variables directly; .env is a local convenience.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Open and migrate the store
	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	// 2. Initialize WebSocket Hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	// 3. Board service
	svc := board.NewService(st,
		board.WithUpvoteStrategy(board.UpvoteStrategy(cfg.UpvoteStrategy)),
		board.WithPublisher(hub),
	)
	log.Printf("Upvote strategy: %s", cfg.UpvoteStrategy)

	// 4. Router
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	routes.SetupRoutes(ctx, router, &routes.Env{Board: svc, Store: st, Hub: hub}, routes.Options{
		CORSOrigin:   cfg.CORSOrigin,
		RateInterval: cfg.RateInterval,
		RateBurst:    cfg.RateBurst,
	})

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
