package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abkawan/cpf-ledger/internal/config"
	"github.com/abkawan/cpf-ledger/internal/db"
	"github.com/abkawan/cpf-ledger/internal/queue"
	"github.com/abkawan/cpf-ledger/internal/service"
	"go.uber.org/zap"
)

func main() {
	historyCPF := flag.String("history", "", "print the recorded audit trail of this CPF and exit")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("connecting to PostgreSQL...")
	postgres, err := db.NewPostgres(cfg.Postgres.URI)
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer postgres.Close()

	if err := postgres.InitSchema(ctx); err != nil {
		logger.Fatal("failed to create schema", zap.Error(err))
	}

	logger.Info("connecting to MongoDB...")
	mongodb, err := db.NewMongoDB(cfg.Mongo.URI, cfg.Mongo.DBName)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongodb.Close()

	if *historyCPF != "" {
		journal := service.NewJournalService(postgres, mongodb, nil, logger)
		trail, err := journal.History(ctx, *historyCPF)
		if err != nil {
			logger.Fatal("failed to load audit trail", zap.Error(err))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(trail); err != nil {
			logger.Fatal("failed to print audit trail", zap.Error(err))
		}
		return
	}

	logger.Info("connecting to RabbitMQ...")
	rabbitmq, err := queue.NewRabbitMQ(cfg.Events.RabbitMQURI, logger)
	if err != nil {
		logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitmq.Close()

	journal := service.NewJournalService(postgres, mongodb, rabbitmq, logger)

	logger.Info("starting ledger event processor...")
	if err := journal.StartProcessor(ctx); err != nil {
		logger.Fatal("failed to start processor", zap.Error(err))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down processor...")
	cancel() // Cancel context to stop processor
	logger.Info("processor shut down successfully")
}
