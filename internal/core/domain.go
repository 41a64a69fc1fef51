package core

import (
	"errors"
	"strings"
	"time"
)

const (
	InStock    StockStatus = "In Stock"
	LowStock   StockStatus = "Low Stock"
	OutOfStock StockStatus = "Out of Stock"
)

// DefaultReorderLevel is applied when an inventory item is created
// without an explicit reorder threshold.
const DefaultReorderLevel = 5

type (
	StockStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID              string
		ItemName        string
		PurchaseCost    Money
		RetailPrice     Money
		Quantity        int
		DateSold        Date
		InventoryItemID string // optional link to the inventory item sold
		CreatedAt       time.Time
	}

	InventoryItem struct {
		ID                   string
		ItemName             string
		PurchaseCost         Money
		SuggestedRetailPrice Money
		QuantityInStock      int
		ReorderLevel         int
		Supplier             string
		Category             string
		CreatedAt            time.Time
	}
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrEmptyItemName     = errors.New("empty item name")
	ErrItemNameTooLong   = errors.New("item name too long (max 200 characters)")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrNegativeStock     = errors.New("stock quantity cannot be negative")
	ErrNegativeReorder   = errors.New("reorder level cannot be negative")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInsufficientStock = errors.New("insufficient stock for requested quantity")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date in YYYY-MM-DD wire format.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.ItemName)) == 0 {
		return ErrEmptyItemName
	}
	if len(t.ItemName) > 200 {
		return ErrItemNameTooLong
	}
	if err := t.PurchaseCost.Validate(); err != nil {
		return err
	}
	if err := t.RetailPrice.Validate(); err != nil {
		return err
	}
	if t.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := t.DateSold.Validate(); err != nil {
		return err
	}
	return nil
}

// Revenue is retail price times quantity sold.
func (t Transaction) Revenue() Money {
	return Money{Cents: t.RetailPrice.Cents * int64(t.Quantity)}
}

// Profit is the per-unit margin times quantity sold. May be negative
// when an item sold below cost.
func (t Transaction) Profit() Money {
	return Money{Cents: (t.RetailPrice.Cents - t.PurchaseCost.Cents) * int64(t.Quantity)}
}

// ProfitMargin is profit over revenue as a percentage, 0 when revenue is 0.
func (t Transaction) ProfitMargin() float64 {
	revenue := t.Revenue().Cents
	if revenue == 0 {
		return 0
	}
	return float64(t.Profit().Cents) / float64(revenue) * 100
}

func (i InventoryItem) Validate() error {
	if len(strings.TrimSpace(i.ItemName)) == 0 {
		return ErrEmptyItemName
	}
	if len(i.ItemName) > 200 {
		return ErrItemNameTooLong
	}
	if err := i.PurchaseCost.Validate(); err != nil {
		return err
	}
	if err := i.SuggestedRetailPrice.Validate(); err != nil {
		return err
	}
	if i.QuantityInStock < 0 {
		return ErrNegativeStock
	}
	if i.ReorderLevel < 0 {
		return ErrNegativeReorder
	}
	return nil
}

// StockStatus derives the stock state from quantity and reorder level.
func (i InventoryItem) StockStatus() StockStatus {
	switch {
	case i.QuantityInStock == 0:
		return OutOfStock
	case i.QuantityInStock <= i.ReorderLevel:
		return LowStock
	default:
		return InStock
	}
}

// StockValue is the purchase cost of all units currently in stock.
func (i InventoryItem) StockValue() Money {
	return Money{Cents: i.PurchaseCost.Cents * int64(i.QuantityInStock)}
}
