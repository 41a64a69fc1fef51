package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bottega/internal/amqp"
	"bottega/internal/cli"
	"bottega/internal/ledger"
	"bottega/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting bottega-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Ledger export is optional, the worker still runs low stock scans
	var ledgerClient *ledger.Client
	if cfg.GoogleSpreadsheetID != "" {
		var err error
		ledgerClient, err = ledger.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize ledger client", "error", err)
			os.Exit(1)
		}
		logger.Info("Ledger client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Ledger export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var appender worker.SaleAppender
	if ledgerClient != nil {
		appender = ledgerClient
	}
	ledgerWorker := worker.NewLedgerWorker(repo, appender, cfg.SyncBatchSize)

	if ledgerClient != nil {
		// Drain anything missed while the worker was down
		logger.Info("Performing startup sync check...")
		if err := ledgerWorker.StartupSyncCheck(ctx); err != nil {
			logger.Error("Failed startup sync check", "error", err)
			// Don't exit - continue with normal operation
		}
	} else {
		logger.Info("Skipping ledger export operations - no client available")
	}

	g, gctx := errgroup.WithContext(ctx)

	if ledgerClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeSaleEvents(gctx, func(msg *amqp.SaleEventMessage) error {
				return ledgerWorker.HandleSaleEvent(gctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})

		g.Go(func() error {
			ticker := time.NewTicker(cfg.SyncInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := ledgerWorker.ProcessPendingSales(gctx); err != nil {
						logger.Error("Periodic sync failed", "error", err)
					}
				}
			}
		})

	}

	// Low stock scans run even without a ledger client
	g.Go(func() error {
		ticker := time.NewTicker(cfg.LowStockInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := ledgerWorker.LowStockScan(gctx); err != nil {
					logger.Error("Low stock scan failed", "error", err)
				}
			}
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-gctx.Done():
		logger.Info("Worker context cancelled")
	}

	cancel()
	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
