package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the sale events queue.
const (
	EventSaleRecorded  = "sale.recorded"
	EventSaleDeleted   = "sale.deleted"
	EventStockAdjusted = "stock.adjusted"
)

// SaleEventMessage is a lightweight notification that something happened
// to a transaction or an inventory item. It carries only identifiers, the
// worker fetches the full record from the database.
type SaleEventMessage struct {
	Event         string    `json:"event"`
	TransactionID string    `json:"transaction_id,omitempty"`
	ItemID        string    `json:"item_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewSaleRecorded builds an event for a freshly recorded sale.
func NewSaleRecorded(transactionID string) *SaleEventMessage {
	return &SaleEventMessage{
		Event:         EventSaleRecorded,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// NewSaleDeleted builds an event for a deleted sale.
func NewSaleDeleted(transactionID string) *SaleEventMessage {
	return &SaleEventMessage{
		Event:         EventSaleDeleted,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// NewStockAdjusted builds an event for an inventory stock change.
func NewStockAdjusted(itemID string) *SaleEventMessage {
	return &SaleEventMessage{
		Event:     EventStockAdjusted,
		ItemID:    itemID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SaleEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SaleEventMessageFromJSON creates a message from JSON bytes
func SaleEventMessageFromJSON(data []byte) (*SaleEventMessage, error) {
	var msg SaleEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
