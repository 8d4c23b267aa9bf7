package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/kithmonite/engine/internal/config"
	"github.com/kithmonite/engine/internal/database"
	"github.com/kithmonite/engine/internal/handlers"
	mW "github.com/kithmonite/engine/internal/middleware"
	"github.com/kithmonite/engine/internal/services"
)

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.ReadInConfig()
	config.BindEnv()

	engineCfg := config.LoadEngineConfig()
	serverCfg := config.LoadServerConfig()

	// Initialize services
	var sink services.RejectionSink
	if engineCfg.RejectionQueueEnabled {
		if rdb := database.InitRedis(); rdb != nil {
			defer rdb.Close()
			sink = database.NewRejectionQueue(rdb)
		}
	}

	audit := services.NewAuditLogger(uuid.NewString())
	ledger := services.NewLedgerService(engineCfg.Scale)
	replay := services.NewReplayService(ledger, audit, sink)
	txHandler := handlers.NewTransactionsHandler(replay)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(mW.CorrelationID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/accounts", txHandler.ListAccounts)
		r.Get("/accounts/{clientID}", txHandler.GetAccount)

		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)
			r.Post("/transactions", txHandler.ApplyTransaction)
		})
	})

	// Start server
	server := &http.Server{
		Addr:         ":" + serverCfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", serverCfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
