package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bottega/internal/amqp"
	"bottega/internal/core"
	applog "bottega/internal/log"
	"bottega/internal/storage"
)

// SaleAppender writes one sale row to the external ledger.
// Satisfied by *ledger.Client.
type SaleAppender interface {
	AppendSale(ctx context.Context, t core.Transaction) (string, error)
}

// LedgerWorker exports recorded sales from SQLite to the bookkeeping
// ledger and watches inventory for items that need reordering.
type LedgerWorker struct {
	storage   *storage.SQLiteRepository
	ledger    SaleAppender
	batchSize int
}

func NewLedgerWorker(storage *storage.SQLiteRepository, ledger SaleAppender, batchSize int) *LedgerWorker {
	return &LedgerWorker{
		storage:   storage,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleSaleEvent processes a single sale event from AMQP.
func (w *LedgerWorker) HandleSaleEvent(ctx context.Context, msg *amqp.SaleEventMessage) error {
	switch msg.Event {
	case amqp.EventSaleRecorded:
		return w.exportByID(ctx, msg.TransactionID)
	case amqp.EventSaleDeleted:
		// The ledger is append only, deletions stay local
		slog.InfoContext(ctx, "Sale deleted locally, ledger row kept",
			"transaction_id", msg.TransactionID)
		return nil
	case amqp.EventStockAdjusted:
		slog.DebugContext(ctx, "Stock adjusted", "item_id", msg.ItemID)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown sale event, dropping", "event", msg.Event)
		return nil
	}
}

func (w *LedgerWorker) exportByID(ctx context.Context, id string) error {
	t, err := w.storage.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before the worker caught up, nothing to export
		slog.WarnContext(ctx, "Transaction gone before ledger export", "transaction_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	return w.export(ctx, t)
}

func (w *LedgerWorker) export(ctx context.Context, t core.Transaction) error {
	ref, err := w.ledger.AppendSale(ctx, t)
	if err != nil {
		return fmt.Errorf("append sale to ledger: %w", err)
	}

	if err := w.storage.MarkLedgerSynced(ctx, t.ID); err != nil {
		return fmt.Errorf("mark ledger synced: %w", err)
	}

	slog.InfoContext(ctx, "Exported sale to ledger",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldTransactionID, t.ID,
		applog.FieldItemName, t.ItemName,
		applog.FieldLedgerRef, ref)
	return nil
}

// ProcessPendingSales exports sales the event stream missed. This is the
// backup mechanism for lost AMQP messages.
func (w *LedgerWorker) ProcessPendingSales(ctx context.Context) error {
	pending, err := w.storage.PendingLedgerTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending ledger exports", "count", len(pending))

	for _, t := range pending {
		if err := w.export(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export sale", "transaction_id", t.ID, "error", err)
			if markErr := w.storage.MarkLedgerError(ctx, t.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark ledger error", "transaction_id", t.ID, "error", markErr)
			}
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup.
// Useful to recover from missed AMQP messages or worker downtime.
func (w *LedgerWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.PendingLedgerTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending ledger exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending ledger exports on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, t := range pending {
		if err := w.export(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed startup export", "transaction_id", t.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync check complete",
		"synced", successCount,
		"errors", errorCount)
	return nil
}

// LowStockScan logs a reorder warning for every item at or below its
// reorder level.
func (w *LedgerWorker) LowStockScan(ctx context.Context) error {
	items, err := w.storage.LowStockItems(ctx)
	if err != nil {
		return fmt.Errorf("list low stock items: %w", err)
	}

	for _, item := range items {
		slog.WarnContext(ctx, "Inventory item needs reordering",
			applog.FieldComponent, applog.ComponentInventory,
			applog.FieldItemID, item.ID,
			applog.FieldItemName, item.ItemName,
			applog.FieldQuantity, item.QuantityInStock,
			"reorder_level", item.ReorderLevel,
			"status", string(item.StockStatus()),
			"supplier", item.Supplier)
	}

	if len(items) > 0 {
		slog.InfoContext(ctx, "Low stock scan complete", "items_flagged", len(items))
	}
	return nil
}
