package main

import (
	"context"
	"os"
	"time"

	"github.com/glopmts/my-finance-sub000/internal/amqp"
	"github.com/glopmts/my-finance-sub000/internal/cli"
	applog "github.com/glopmts/my-finance-sub000/internal/log"
	"github.com/glopmts/my-finance-sub000/internal/sheets"
	gsheet "github.com/glopmts/my-finance-sub000/internal/sheets/google"
	mem "github.com/glopmts/my-finance-sub000/internal/sheets/memory"
	"github.com/glopmts/my-finance-sub000/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting report-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Without a spreadsheet configured the worker still drains events,
	// writing summaries to an in-memory sink for local development.
	var writer sheets.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets report backend initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleReportSheet)
	} else {
		writer = mem.New()
		logger.Info("Google Sheets disabled, using in-memory report sink")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reportWorker := worker.NewReportWorker(repo, writer, cfg.ReportBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := amqpClient.ConsumeMonthEvents(ctx, reportWorker.HandleMonthEvent); err != nil {
			if err != context.Canceled {
				logger.Error("Month event consumption failed", applog.FieldError, err)
			}
			cancel()
		}
	}()

	// Periodic backlog checks catch records whose events were lost.
	go reportWorker.Run(ctx, cfg.ReportInterval)

	_, done := cli.GracefulShutdown(logger, 15*time.Second, cancel)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Report worker stopped gracefully")
}
