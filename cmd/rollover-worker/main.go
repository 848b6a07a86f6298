package main

import (
	"context"
	"time"

	"github.com/glopmts/my-finance-sub000/internal/amqp"
	"github.com/glopmts/my-finance-sub000/internal/cli"
	applog "github.com/glopmts/my-finance-sub000/internal/log"
	"github.com/glopmts/my-finance-sub000/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentRollover)

	logger.Info("Starting rollover-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var events services.EventPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, month events disabled", applog.FieldError, err)
	} else {
		defer amqpClient.Close()
		events = amqpClient
	}

	balances := services.NewBalanceService(repo, repo, events, cfg.HistoryLimit)
	processor := services.NewRolloverProcessor(repo, balances, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, done := cli.GracefulShutdown(logger, 15*time.Second, cancel)

	logger.Info("Rollover processor running", "interval", cfg.RolloverInterval.String())
	processor.Run(ctx, cfg.RolloverInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Rollover worker stopped gracefully")
}
