package core

import (
	"math"
	"testing"
)

func tx(name string, costCents, priceCents int64, qty int, date Date) Transaction {
	return Transaction{
		ItemName:     name,
		PurchaseCost: Money{Cents: costCents},
		RetailPrice:  Money{Cents: priceCents},
		Quantity:     qty,
		DateSold:     date,
	}
}

func TestComputeDashboardStatsEmpty(t *testing.T) {
	stats := ComputeDashboardStats(nil)
	if stats.TotalRevenue.Cents != 0 || stats.TotalProfit.Cents != 0 {
		t.Fatalf("empty list must produce zero totals: %+v", stats)
	}
	if stats.AverageProfitMargin != 0 {
		t.Fatalf("average margin of empty list = %f, want 0", stats.AverageProfitMargin)
	}
	if stats.BestSellingItem != "" {
		t.Fatalf("best seller of empty list = %q, want empty", stats.BestSellingItem)
	}
	if len(stats.DailySales) != 0 {
		t.Fatalf("daily sales of empty list should be empty")
	}
}

func TestComputeDashboardStatsSingle(t *testing.T) {
	// cost 10, price 15, qty 2 => revenue 30, profit 10, margin 33.3%
	stats := ComputeDashboardStats([]Transaction{
		tx("Widget", 1000, 1500, 2, NewDate(2025, 6, 1)),
	})
	if stats.TotalRevenue.Cents != 3000 {
		t.Fatalf("revenue = %d, want 3000", stats.TotalRevenue.Cents)
	}
	if stats.TotalProfit.Cents != 1000 {
		t.Fatalf("profit = %d, want 1000", stats.TotalProfit.Cents)
	}
	if stats.TotalTransactions != 1 {
		t.Fatalf("count = %d, want 1", stats.TotalTransactions)
	}
	if math.Abs(stats.AverageProfitMargin-100.0/3.0) > 1e-9 {
		t.Fatalf("margin = %f, want 33.333...", stats.AverageProfitMargin)
	}
	if stats.BestSellingItem != "Widget" {
		t.Fatalf("best seller = %q, want Widget", stats.BestSellingItem)
	}
}

// Total profit must equal total revenue minus total cost of goods sold.
func TestProfitRevenueIdentity(t *testing.T) {
	txs := []Transaction{
		tx("A", 1000, 1500, 2, NewDate(2025, 6, 1)),
		tx("B", 200, 250, 10, NewDate(2025, 6, 2)),
		tx("C", 5000, 4000, 1, NewDate(2025, 6, 3)), // sold at a loss
	}
	stats := ComputeDashboardStats(txs)

	var costOfGoods int64
	for _, t := range txs {
		costOfGoods += t.PurchaseCost.Cents * int64(t.Quantity)
	}
	if stats.TotalProfit.Cents != stats.TotalRevenue.Cents-costOfGoods {
		t.Fatalf("profit identity violated: profit=%d revenue=%d cogs=%d",
			stats.TotalProfit.Cents, stats.TotalRevenue.Cents, costOfGoods)
	}
}

func TestAverageMarginSkipsNonPositive(t *testing.T) {
	stats := ComputeDashboardStats([]Transaction{
		tx("Gain", 500, 1000, 1, NewDate(2025, 6, 1)), // margin 50%
		tx("Loss", 1000, 800, 1, NewDate(2025, 6, 1)), // negative margin, excluded
		tx("Free", 0, 0, 1, NewDate(2025, 6, 1)),      // zero revenue, excluded
	})
	if math.Abs(stats.AverageProfitMargin-50) > 1e-9 {
		t.Fatalf("margin = %f, want 50 (only positive margins averaged)", stats.AverageProfitMargin)
	}
}

func TestBestSellerByQuantity(t *testing.T) {
	stats := ComputeDashboardStats([]Transaction{
		tx("Case", 100, 200, 3, NewDate(2025, 6, 1)),
		tx("Cable", 50, 150, 4, NewDate(2025, 6, 1)),
		tx("Case", 100, 200, 2, NewDate(2025, 6, 2)), // Case total: 5
	})
	if stats.BestSellingItem != "Case" {
		t.Fatalf("best seller = %q, want Case", stats.BestSellingItem)
	}
}

func TestBestSellerTieBreaksAlphabetically(t *testing.T) {
	stats := ComputeDashboardStats([]Transaction{
		tx("Zebra", 100, 200, 3, NewDate(2025, 6, 1)),
		tx("Apple", 100, 200, 3, NewDate(2025, 6, 1)),
	})
	if stats.BestSellingItem != "Apple" {
		t.Fatalf("best seller = %q, want Apple on tie", stats.BestSellingItem)
	}
}

func TestDailySalesGroupedAndOrdered(t *testing.T) {
	stats := ComputeDashboardStats([]Transaction{
		tx("A", 100, 200, 1, NewDate(2025, 6, 3)),
		tx("B", 100, 200, 1, NewDate(2025, 6, 1)),
		tx("C", 100, 300, 2, NewDate(2025, 6, 1)),
	})
	if len(stats.DailySales) != 2 {
		t.Fatalf("days = %d, want 2", len(stats.DailySales))
	}
	first, second := stats.DailySales[0], stats.DailySales[1]
	if first.Date.String() != "2025-06-01" || second.Date.String() != "2025-06-03" {
		t.Fatalf("days out of order: %s, %s", first.Date, second.Date)
	}
	if first.Revenue.Cents != 200+600 {
		t.Fatalf("day one revenue = %d, want 800", first.Revenue.Cents)
	}
	if first.Transactions != 2 {
		t.Fatalf("day one transactions = %d, want 2", first.Transactions)
	}
}

func TestComputeInventoryStats(t *testing.T) {
	items := []InventoryItem{
		{ItemName: "A", PurchaseCost: Money{Cents: 250}, QuantityInStock: 4, ReorderLevel: 5, Category: "Electronics"},
		{ItemName: "B", PurchaseCost: Money{Cents: 100}, QuantityInStock: 0, ReorderLevel: 5, Category: "Accessories"},
		{ItemName: "C", PurchaseCost: Money{Cents: 500}, QuantityInStock: 20, ReorderLevel: 5, Category: "Electronics"},
		{ItemName: "D", PurchaseCost: Money{Cents: 50}, QuantityInStock: 8, ReorderLevel: 10},
	}
	stats := ComputeInventoryStats(items)

	if stats.TotalItems != 4 {
		t.Fatalf("total items = %d, want 4", stats.TotalItems)
	}
	wantValue := int64(250*4 + 0 + 500*20 + 50*8)
	if stats.TotalStockValue.Cents != wantValue {
		t.Fatalf("stock value = %d, want %d", stats.TotalStockValue.Cents, wantValue)
	}
	if stats.LowStockItems != 2 { // A (4<=5) and D (8<=10)
		t.Fatalf("low stock = %d, want 2", stats.LowStockItems)
	}
	if stats.OutOfStockItems != 1 {
		t.Fatalf("out of stock = %d, want 1", stats.OutOfStockItems)
	}
	if len(stats.Categories) != 2 || stats.Categories[0] != "Accessories" || stats.Categories[1] != "Electronics" {
		t.Fatalf("categories = %v, want [Accessories Electronics]", stats.Categories)
	}
}

func TestComputeSalesChart(t *testing.T) {
	points := ComputeSalesChart([]Transaction{
		tx("A", 100, 200, 1, NewDate(2025, 6, 2)),
		tx("B", 100, 200, 2, NewDate(2025, 6, 1)),
		tx("C", 100, 400, 1, NewDate(2025, 6, 2)),
	})
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].Label.String() != "2025-06-01" {
		t.Fatalf("first label = %s, want 2025-06-01", points[0].Label)
	}
	if points[1].Revenue.Cents != 200+400 {
		t.Fatalf("second revenue = %d, want 600", points[1].Revenue.Cents)
	}
	if points[1].Profit.Cents != 100+300 {
		t.Fatalf("second profit = %d, want 400", points[1].Profit.Cents)
	}
}

func TestComputeSalesChartEmpty(t *testing.T) {
	if points := ComputeSalesChart(nil); len(points) != 0 {
		t.Fatalf("expected empty chart, got %d points", len(points))
	}
}
