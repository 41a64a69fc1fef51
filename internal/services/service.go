package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bottega/internal/amqp"
	"bottega/internal/core"
	"bottega/internal/storage"
)

// EventPublisher publishes sale events. Satisfied by *amqp.Client.
type EventPublisher interface {
	PublishSaleEvent(ctx context.Context, msg *amqp.SaleEventMessage) error
}

// Service orchestrates sales and inventory operations across SQLite and AMQP.
// Writes land in SQLite first, events are published best effort afterwards.
type Service struct {
	storage *storage.SQLiteRepository
	events  EventPublisher
}

func NewService(storage *storage.SQLiteRepository, events EventPublisher) *Service {
	return &Service{
		storage: storage,
		events:  events,
	}
}

// RecordSale validates and stores a sale. When the sale is linked to an
// inventory item, missing cost and price are filled in from the item and
// the stock level is decremented before the transaction is written.
func (s *Service) RecordSale(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()

	if t.InventoryItemID != "" {
		item, err := s.storage.GetInventoryItem(ctx, t.InventoryItemID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("load linked item: %w", err)
		}
		if t.PurchaseCost.Cents == 0 {
			t.PurchaseCost = item.PurchaseCost
		}
		if t.RetailPrice.Cents == 0 {
			t.RetailPrice = item.SuggestedRetailPrice
		}
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if t.InventoryItemID != "" {
		if err := s.storage.AdjustStock(ctx, t.InventoryItemID, -t.Quantity); err != nil {
			return core.Transaction{}, err
		}
	}

	if err := s.storage.InsertTransaction(ctx, t); err != nil {
		if t.InventoryItemID != "" {
			// Put the stock back, the sale was never recorded
			if restoreErr := s.storage.AdjustStock(ctx, t.InventoryItemID, t.Quantity); restoreErr != nil {
				slog.ErrorContext(ctx, "Failed to restore stock after insert failure",
					"item_id", t.InventoryItemID, "error", restoreErr)
			}
		}
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.NewSaleRecorded(t.ID))
	if t.InventoryItemID != "" {
		s.publish(ctx, amqp.NewStockAdjusted(t.InventoryItemID))
	}

	return t, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

func (s *Service) ListSales(ctx context.Context) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx)
}

// UpdateSale stores an already merged transaction. The record keeps its
// identity but the created_at timestamp is refreshed so the update shows
// up as recent activity.
func (s *Service) UpdateSale(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.CreatedAt = time.Now().UTC()

	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// DeleteSale removes a sale and announces the deletion. Stock is not
// restored, a deleted sale is a bookkeeping correction rather than a return.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.NewSaleDeleted(id))
	return nil
}

func (s *Service) AddInventoryItem(ctx context.Context, item core.InventoryItem) (core.InventoryItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now().UTC()

	if err := item.Validate(); err != nil {
		return core.InventoryItem{}, err
	}
	if err := s.storage.InsertInventoryItem(ctx, item); err != nil {
		return core.InventoryItem{}, fmt.Errorf("save inventory item: %w", err)
	}
	return item, nil
}

func (s *Service) GetInventoryItem(ctx context.Context, id string) (core.InventoryItem, error) {
	return s.storage.GetInventoryItem(ctx, id)
}

func (s *Service) ListInventory(ctx context.Context) ([]core.InventoryItem, error) {
	return s.storage.ListInventoryItems(ctx)
}

func (s *Service) UpdateInventoryItem(ctx context.Context, item core.InventoryItem) (core.InventoryItem, error) {
	if err := item.Validate(); err != nil {
		return core.InventoryItem{}, err
	}
	if err := s.storage.UpdateInventoryItem(ctx, item); err != nil {
		return core.InventoryItem{}, err
	}
	s.publish(ctx, amqp.NewStockAdjusted(item.ID))
	return item, nil
}

func (s *Service) DeleteInventoryItem(ctx context.Context, id string) error {
	return s.storage.DeleteInventoryItem(ctx, id)
}

// DashboardStats aggregates all transactions into the dashboard view.
func (s *Service) DashboardStats(ctx context.Context) (core.DashboardStats, error) {
	txs, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return core.DashboardStats{}, fmt.Errorf("load transactions: %w", err)
	}
	return core.ComputeDashboardStats(txs), nil
}

// InventoryStats aggregates all inventory items into stock level counts.
func (s *Service) InventoryStats(ctx context.Context) (core.InventoryStats, error) {
	items, err := s.storage.ListInventoryItems(ctx)
	if err != nil {
		return core.InventoryStats{}, fmt.Errorf("load inventory: %w", err)
	}
	return core.ComputeInventoryStats(items), nil
}

// SalesChart returns the per day revenue and profit series.
func (s *Service) SalesChart(ctx context.Context) ([]core.ChartPoint, error) {
	txs, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return core.ComputeSalesChart(txs), nil
}

func (s *Service) publish(ctx context.Context, msg *amqp.SaleEventMessage) {
	if s.events == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping event", "event", msg.Event)
		return
	}
	if err := s.events.PublishSaleEvent(ctx, msg); err != nil {
		// Local write already succeeded, the worker catches up from sync_status
		slog.ErrorContext(ctx, "Failed to publish sale event",
			"event", msg.Event, "error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *Service) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if closer, ok := s.events.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close service: %v", errs)
	}

	return nil
}
