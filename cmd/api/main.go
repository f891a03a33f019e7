package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abkawan/cpf-ledger/internal/api"
	"github.com/abkawan/cpf-ledger/internal/config"
	"github.com/abkawan/cpf-ledger/internal/queue"
	"github.com/abkawan/cpf-ledger/internal/service"
	"github.com/abkawan/cpf-ledger/internal/store"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Ledger events are optional; the in-memory store is the source of truth
	var publisher service.EventPublisher = queue.NopPublisher{}
	if cfg.Events.Enabled {
		logger.Info("connecting to RabbitMQ...")
		rabbitmq, err := queue.NewRabbitMQ(cfg.Events.RabbitMQURI, logger)
		if err != nil {
			logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbitmq.Close()
		publisher = rabbitmq
	}

	ledger := service.NewLedgerService(store.NewMemory(), publisher, logger)

	// Create router and set up routes
	router := mux.NewRouter()
	api.SetupRoutes(router, ledger, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting server",
			zap.String("address", server.Addr),
			zap.Bool("events_enabled", cfg.Events.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
		return
	}

	logger.Info("server shut down successfully")
}
