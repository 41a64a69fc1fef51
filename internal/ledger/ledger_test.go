package ledger

import (
	"context"
	"testing"

	"bottega/internal/core"
)

func TestSaleRowLayout(t *testing.T) {
	tx := core.Transaction{
		ItemName:     "Ceramic Mug",
		PurchaseCost: core.Money{Cents: 450},
		RetailPrice:  core.Money{Cents: 1200},
		Quantity:     2,
		DateSold:     core.NewDate(2025, 3, 14),
	}

	row := saleRow(tx)
	if len(row) != 7 {
		t.Fatalf("row has %d columns, want 7", len(row))
	}
	if row[0] != "2025-03-14" || row[1] != "Ceramic Mug" || row[2] != 2 {
		t.Fatalf("identity columns wrong: %v", row)
	}
	if row[3] != 4.50 || row[4] != 12.00 {
		t.Fatalf("unit columns wrong: %v", row)
	}
	if row[5] != 24.00 || row[6] != 15.00 {
		t.Fatalf("derived columns wrong: %v", row)
	}
}

func TestAppendSaleWithoutService(t *testing.T) {
	c := &Client{}
	if _, err := c.AppendSale(context.Background(), core.Transaction{}); err == nil {
		t.Fatal("expected error when service not initialized")
	}
}
