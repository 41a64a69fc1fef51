package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"bottega/internal/core"
)

// Ledger sync states for a transaction row.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// SQLiteRepository persists transactions and inventory items in a local
// SQLite database. All writes happen here first; the ledger export is
// driven off the sync_status column afterwards.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

const transactionColumns = `id, item_name, purchase_cost_cents, retail_price_cents, quantity, date_sold, inventory_item_id, created_at`

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ItemName, t.PurchaseCost.Cents, t.RetailPrice.Cents,
		t.Quantity, t.DateSold.String(), t.InventoryItemID,
		t.CreatedAt.UTC().Format(time.RFC3339Nano), SyncPending,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns all transactions, most recently recorded first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET item_name = ?, purchase_cost_cents = ?, retail_price_cents = ?,
		     quantity = ?, date_sold = ?, inventory_item_id = ?, created_at = ?
		 WHERE id = ?`,
		t.ItemName, t.PurchaseCost.Cents, t.RetailPrice.Cents,
		t.Quantity, t.DateSold.String(), t.InventoryItemID,
		t.CreatedAt.UTC().Format(time.RFC3339Nano), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(res)
}

// PendingLedgerTransactions returns up to limit transactions that have not
// been exported to the ledger yet, oldest first.
func (r *SQLiteRepository) PendingLedgerTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE sync_status = ? ORDER BY created_at ASC, id LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkLedgerSynced(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, SyncDone)
}

func (r *SQLiteRepository) MarkLedgerError(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, SyncError)
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	return requireAffected(res)
}

const inventoryColumns = `id, item_name, purchase_cost_cents, suggested_retail_price_cents, quantity_in_stock, reorder_level, supplier, category, created_at`

func (r *SQLiteRepository) InsertInventoryItem(ctx context.Context, item core.InventoryItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO inventory_items (`+inventoryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ItemName, item.PurchaseCost.Cents, item.SuggestedRetailPrice.Cents,
		item.QuantityInStock, item.ReorderLevel, item.Supplier, item.Category,
		item.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert inventory item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetInventoryItem(ctx context.Context, id string) (core.InventoryItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory_items WHERE id = ?`, id)

	item, err := scanInventoryItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.InventoryItem{}, core.ErrNotFound
	}
	if err != nil {
		return core.InventoryItem{}, fmt.Errorf("get inventory item: %w", err)
	}
	return item, nil
}

func (r *SQLiteRepository) ListInventoryItems(ctx context.Context) ([]core.InventoryItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory_items ORDER BY item_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()

	var out []core.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory items: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateInventoryItem(ctx context.Context, item core.InventoryItem) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE inventory_items
		 SET item_name = ?, purchase_cost_cents = ?, suggested_retail_price_cents = ?,
		     quantity_in_stock = ?, reorder_level = ?, supplier = ?, category = ?
		 WHERE id = ?`,
		item.ItemName, item.PurchaseCost.Cents, item.SuggestedRetailPrice.Cents,
		item.QuantityInStock, item.ReorderLevel, item.Supplier, item.Category, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteInventoryItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}
	return requireAffected(res)
}

// AdjustStock changes an item's stock level by delta. The guard in the
// WHERE clause keeps quantity_in_stock from ever going negative, so an
// oversell loses the race instead of corrupting the count.
func (r *SQLiteRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE inventory_items
		 SET quantity_in_stock = quantity_in_stock + ?
		 WHERE id = ? AND quantity_in_stock + ? >= 0`,
		delta, id, delta,
	)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust stock rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := r.GetInventoryItem(ctx, id); err != nil {
			return err
		}
		return core.ErrInsufficientStock
	}
	return nil
}

// LowStockItems returns items at or below their reorder level, including
// items that are fully out of stock.
func (r *SQLiteRepository) LowStockItems(ctx context.Context) ([]core.InventoryItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory_items
		 WHERE quantity_in_stock <= reorder_level ORDER BY item_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list low stock items: %w", err)
	}
	defer rows.Close()

	var out []core.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan low stock item: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate low stock items: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		dateSold  string
		createdAt string
	)
	if err := s.Scan(
		&t.ID, &t.ItemName, &t.PurchaseCost.Cents, &t.RetailPrice.Cents,
		&t.Quantity, &dateSold, &t.InventoryItemID, &createdAt,
	); err != nil {
		return core.Transaction{}, err
	}

	d, err := core.ParseDate(dateSold)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date_sold %q: %w", dateSold, err)
	}
	t.DateSold = d

	t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return t, nil
}

func scanInventoryItem(s scanner) (core.InventoryItem, error) {
	var (
		item      core.InventoryItem
		createdAt string
	)
	if err := s.Scan(
		&item.ID, &item.ItemName, &item.PurchaseCost.Cents, &item.SuggestedRetailPrice.Cents,
		&item.QuantityInStock, &item.ReorderLevel, &item.Supplier, &item.Category, &createdAt,
	); err != nil {
		return core.InventoryItem{}, err
	}

	var err error
	item.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.InventoryItem{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return item, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}
