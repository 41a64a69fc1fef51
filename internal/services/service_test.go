package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bottega/internal/amqp"
	"bottega/internal/core"
	"bottega/internal/storage"
)

type capturingPublisher struct {
	events []*amqp.SaleEventMessage
	err    error
}

func (p *capturingPublisher) PublishSaleEvent(_ context.Context, msg *amqp.SaleEventMessage) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, msg)
	return nil
}

func newTestService(t *testing.T) (*Service, *capturingPublisher) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	pub := &capturingPublisher{}
	return NewService(repo, pub), pub
}

func saleFixture() core.Transaction {
	return core.Transaction{
		ItemName:     "Linen Apron",
		PurchaseCost: core.Money{Cents: 1000},
		RetailPrice:  core.Money{Cents: 1500},
		Quantity:     2,
		DateSold:     core.NewDate(2025, 6, 1),
	}
}

func itemFixture() core.InventoryItem {
	return core.InventoryItem{
		ItemName:             "Linen Apron",
		PurchaseCost:         core.Money{Cents: 1000},
		SuggestedRetailPrice: core.Money{Cents: 1500},
		QuantityInStock:      5,
		ReorderLevel:         2,
		Supplier:             "Atelier Nord",
		Category:             "Apparel",
	}
}

func TestRecordSaleAssignsIDAndPublishes(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	saved, err := svc.RecordSale(ctx, saleFixture())
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated ID")
	}
	if saved.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	got, err := svc.GetSale(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetSale: %v", err)
	}
	if got.Revenue().Cents != 3000 || got.Profit().Cents != 1000 {
		t.Fatalf("derived values wrong: revenue=%d profit=%d", got.Revenue().Cents, got.Profit().Cents)
	}

	if len(pub.events) != 1 || pub.events[0].Event != amqp.EventSaleRecorded {
		t.Fatalf("events = %+v, want one sale.recorded", pub.events)
	}
}

func TestRecordSaleRejectsInvalid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sale := saleFixture()
	sale.Quantity = 0
	if _, err := svc.RecordSale(ctx, sale); !errors.Is(err, core.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	sale = saleFixture()
	sale.ItemName = ""
	if _, err := svc.RecordSale(ctx, sale); !errors.Is(err, core.ErrEmptyItemName) {
		t.Fatalf("expected ErrEmptyItemName, got %v", err)
	}
}

func TestRecordSaleLinkedToInventory(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	item, err := svc.AddInventoryItem(ctx, itemFixture())
	if err != nil {
		t.Fatalf("AddInventoryItem: %v", err)
	}

	sale := core.Transaction{
		ItemName:        "Linen Apron",
		Quantity:        3,
		DateSold:        core.NewDate(2025, 6, 1),
		InventoryItemID: item.ID,
	}
	saved, err := svc.RecordSale(ctx, sale)
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if saved.PurchaseCost.Cents != 1000 || saved.RetailPrice.Cents != 1500 {
		t.Fatalf("cost/price not filled from item: %+v", saved)
	}

	got, err := svc.GetInventoryItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if got.QuantityInStock != 2 {
		t.Fatalf("stock = %d, want 2 after selling 3 of 5", got.QuantityInStock)
	}

	if len(pub.events) != 2 || pub.events[1].Event != amqp.EventStockAdjusted {
		t.Fatalf("events = %+v, want sale.recorded then stock.adjusted", pub.events)
	}
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.AddInventoryItem(ctx, itemFixture())
	if err != nil {
		t.Fatalf("AddInventoryItem: %v", err)
	}

	sale := core.Transaction{
		ItemName:        "Linen Apron",
		Quantity:        6,
		DateSold:        core.NewDate(2025, 6, 1),
		InventoryItemID: item.ID,
	}
	if _, err := svc.RecordSale(ctx, sale); !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	got, _ := svc.GetInventoryItem(ctx, item.ID)
	if got.QuantityInStock != 5 {
		t.Fatalf("stock = %d, want untouched 5", got.QuantityInStock)
	}
	sales, _ := svc.ListSales(ctx)
	if len(sales) != 0 {
		t.Fatalf("expected no recorded sales, got %d", len(sales))
	}
}

func TestRecordSaleUnknownInventoryItem(t *testing.T) {
	svc, _ := newTestService(t)

	sale := saleFixture()
	sale.InventoryItemID = "ghost"
	if _, err := svc.RecordSale(context.Background(), sale); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordSaleSurvivesPublishFailure(t *testing.T) {
	svc, pub := newTestService(t)
	pub.err = errors.New("broker down")

	saved, err := svc.RecordSale(context.Background(), saleFixture())
	if err != nil {
		t.Fatalf("RecordSale should not fail on publish error: %v", err)
	}
	if _, err := svc.GetSale(context.Background(), saved.ID); err != nil {
		t.Fatalf("sale not persisted: %v", err)
	}
}

func TestUpdateSaleRefreshesCreatedAt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	saved, err := svc.RecordSale(ctx, saleFixture())
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	saved.RetailPrice = core.Money{Cents: 2000}
	updated, err := svc.UpdateSale(ctx, saved)
	if err != nil {
		t.Fatalf("UpdateSale: %v", err)
	}
	if !updated.CreatedAt.After(saved.CreatedAt) && !updated.CreatedAt.Equal(saved.CreatedAt) {
		t.Fatalf("created_at went backwards: %v -> %v", saved.CreatedAt, updated.CreatedAt)
	}

	got, _ := svc.GetSale(ctx, saved.ID)
	if got.RetailPrice.Cents != 2000 {
		t.Fatalf("price = %d, want 2000", got.RetailPrice.Cents)
	}
}

func TestDeleteSalePublishesEvent(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	saved, err := svc.RecordSale(ctx, saleFixture())
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if err := svc.DeleteSale(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	if _, err := svc.GetSale(ctx, saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	last := pub.events[len(pub.events)-1]
	if last.Event != amqp.EventSaleDeleted || last.TransactionID != saved.ID {
		t.Fatalf("last event = %+v, want sale.deleted", last)
	}

	if err := svc.DeleteSale(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestDashboardStatsAggregates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := saleFixture() // revenue 3000, profit 1000
	second := core.Transaction{
		ItemName:     "Ceramic Mug",
		PurchaseCost: core.Money{Cents: 450},
		RetailPrice:  core.Money{Cents: 1200},
		Quantity:     4,
		DateSold:     core.NewDate(2025, 6, 2),
	} // revenue 4800, profit 3000

	for _, tx := range []core.Transaction{first, second} {
		if _, err := svc.RecordSale(ctx, tx); err != nil {
			t.Fatalf("RecordSale: %v", err)
		}
	}

	stats, err := svc.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalRevenue.Cents != 7800 || stats.TotalProfit.Cents != 4000 {
		t.Fatalf("totals: revenue=%d profit=%d", stats.TotalRevenue.Cents, stats.TotalProfit.Cents)
	}
	if stats.TotalTransactions != 2 {
		t.Fatalf("transactions = %d, want 2", stats.TotalTransactions)
	}
	if stats.BestSellingItem != "Ceramic Mug" {
		t.Fatalf("best seller = %s, want Ceramic Mug", stats.BestSellingItem)
	}
	if len(stats.DailySales) != 2 || stats.DailySales[0].Date.String() != "2025-06-01" {
		t.Fatalf("daily sales: %+v", stats.DailySales)
	}
}

func TestInventoryStatsAggregates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	low := itemFixture()
	low.QuantityInStock = 1

	out := itemFixture()
	out.ItemName = "Ceramic Mug"
	out.QuantityInStock = 0
	out.Category = "Kitchenware"

	for _, item := range []core.InventoryItem{low, out} {
		if _, err := svc.AddInventoryItem(ctx, item); err != nil {
			t.Fatalf("AddInventoryItem: %v", err)
		}
	}

	stats, err := svc.InventoryStats(ctx)
	if err != nil {
		t.Fatalf("InventoryStats: %v", err)
	}
	if stats.TotalItems != 2 || stats.LowStockItems != 1 || stats.OutOfStockItems != 1 {
		t.Fatalf("stats: %+v", stats)
	}
	if stats.TotalStockValue.Cents != 1000 {
		t.Fatalf("stock value = %d, want 1000", stats.TotalStockValue.Cents)
	}
	if len(stats.Categories) != 2 {
		t.Fatalf("categories: %v", stats.Categories)
	}
}

func TestSalesChartOrdered(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	later := saleFixture()
	later.DateSold = core.NewDate(2025, 6, 3)
	earlier := saleFixture()
	earlier.DateSold = core.NewDate(2025, 6, 1)

	for _, tx := range []core.Transaction{later, earlier} {
		if _, err := svc.RecordSale(ctx, tx); err != nil {
			t.Fatalf("RecordSale: %v", err)
		}
	}

	points, err := svc.SalesChart(ctx)
	if err != nil {
		t.Fatalf("SalesChart: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("len = %d, want 2", len(points))
	}
	if points[0].Label.String() != "2025-06-01" || points[1].Label.String() != "2025-06-03" {
		t.Fatalf("chart out of order: %+v", points)
	}
}
