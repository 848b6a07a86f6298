package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/glopmts/my-finance-sub000/internal/amqp"
	"github.com/glopmts/my-finance-sub000/internal/cli"
	apphttp "github.com/glopmts/my-finance-sub000/internal/http"
	applog "github.com/glopmts/my-finance-sub000/internal/log"
	"github.com/glopmts/my-finance-sub000/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	logger.Info("Starting myfinance server")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Month events are best effort: without a broker the API still works,
	// only the report pipeline goes quiet.
	var events services.EventPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, month events disabled", applog.FieldError, err)
	} else {
		defer amqpClient.Close()
		events = amqpClient
	}

	balances := services.NewBalanceService(repo, repo, events, cfg.HistoryLimit)
	folders := services.NewFolderService(repo)

	srv := apphttp.NewServer(":"+cfg.Port, balances, folders, repo, logger)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Server-side rollover keeps records current even without client calls.
	processor := services.NewRolloverProcessor(repo, balances, 4)
	go processor.Run(ctx, cfg.RolloverInterval)

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	})

	logger.Info("Starting HTTP server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
