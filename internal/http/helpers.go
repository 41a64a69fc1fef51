package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bottega/internal/core"
)

// maxBodyBytes caps request bodies, sale and inventory payloads are tiny.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Detail string `json:"detail"`
}

type transactionResponse struct {
	ID              string  `json:"id"`
	ItemName        string  `json:"item_name"`
	PurchaseCost    float64 `json:"purchase_cost"`
	RetailPrice     float64 `json:"retail_price"`
	Quantity        int     `json:"quantity"`
	DateSold        string  `json:"date_sold"`
	InventoryItemID string  `json:"inventory_item_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
	Revenue         float64 `json:"revenue"`
	Profit          float64 `json:"profit"`
	ProfitMargin    float64 `json:"profit_margin"`
}

type inventoryItemResponse struct {
	ID                   string  `json:"id"`
	ItemName             string  `json:"item_name"`
	PurchaseCost         float64 `json:"purchase_cost"`
	SuggestedRetailPrice float64 `json:"suggested_retail_price"`
	QuantityInStock      int     `json:"quantity_in_stock"`
	ReorderLevel         int     `json:"reorder_level"`
	Supplier             string  `json:"supplier,omitempty"`
	Category             string  `json:"category,omitempty"`
	StockStatus          string  `json:"stock_status"`
	StockValue           float64 `json:"stock_value"`
	CreatedAt            string  `json:"created_at"`
}

type dailySaleResponse struct {
	Date         string  `json:"date"`
	Revenue      float64 `json:"revenue"`
	Profit       float64 `json:"profit"`
	Transactions int     `json:"transactions"`
}

type dashboardResponse struct {
	TotalRevenue        float64             `json:"total_revenue"`
	TotalProfit         float64             `json:"total_profit"`
	TotalTransactions   int                 `json:"total_transactions"`
	AverageProfitMargin float64             `json:"average_profit_margin"`
	BestSellingItem     string              `json:"best_selling_item"`
	DailySales          []dailySaleResponse `json:"daily_sales"`
}

type inventoryStatsResponse struct {
	TotalItems      int      `json:"total_items"`
	TotalStockValue float64  `json:"total_stock_value"`
	LowStockItems   int      `json:"low_stock_items"`
	OutOfStockItems int      `json:"out_of_stock_items"`
	Categories      []string `json:"categories"`
}

type salesChartResponse struct {
	Labels      []string  `json:"labels"`
	RevenueData []float64 `json:"revenue_data"`
	ProfitData  []float64 `json:"profit_data"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		ItemName:        t.ItemName,
		PurchaseCost:    t.PurchaseCost.Amount(),
		RetailPrice:     t.RetailPrice.Amount(),
		Quantity:        t.Quantity,
		DateSold:        t.DateSold.String(),
		InventoryItemID: t.InventoryItemID,
		CreatedAt:       t.CreatedAt.UTC().Format(time.RFC3339),
		Revenue:         t.Revenue().Amount(),
		Profit:          t.Profit().Amount(),
		ProfitMargin:    t.ProfitMargin(),
	}
}

func toInventoryItemResponse(i core.InventoryItem) inventoryItemResponse {
	return inventoryItemResponse{
		ID:                   i.ID,
		ItemName:             i.ItemName,
		PurchaseCost:         i.PurchaseCost.Amount(),
		SuggestedRetailPrice: i.SuggestedRetailPrice.Amount(),
		QuantityInStock:      i.QuantityInStock,
		ReorderLevel:         i.ReorderLevel,
		Supplier:             i.Supplier,
		Category:             i.Category,
		StockStatus:          string(i.StockStatus()),
		StockValue:           i.StockValue().Amount(),
		CreatedAt:            i.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toDashboardResponse(stats core.DashboardStats) dashboardResponse {
	resp := dashboardResponse{
		TotalRevenue:        stats.TotalRevenue.Amount(),
		TotalProfit:         stats.TotalProfit.Amount(),
		TotalTransactions:   stats.TotalTransactions,
		AverageProfitMargin: stats.AverageProfitMargin,
		BestSellingItem:     stats.BestSellingItem,
		DailySales:          make([]dailySaleResponse, 0, len(stats.DailySales)),
	}
	for _, d := range stats.DailySales {
		resp.DailySales = append(resp.DailySales, dailySaleResponse{
			Date:         d.Date.String(),
			Revenue:      d.Revenue.Amount(),
			Profit:       d.Profit.Amount(),
			Transactions: d.Transactions,
		})
	}
	return resp
}

func toInventoryStatsResponse(stats core.InventoryStats) inventoryStatsResponse {
	resp := inventoryStatsResponse{
		TotalItems:      stats.TotalItems,
		TotalStockValue: stats.TotalStockValue.Amount(),
		LowStockItems:   stats.LowStockItems,
		OutOfStockItems: stats.OutOfStockItems,
		Categories:      stats.Categories,
	}
	if resp.Categories == nil {
		resp.Categories = []string{}
	}
	return resp
}

func toSalesChartResponse(points []core.ChartPoint) salesChartResponse {
	resp := salesChartResponse{
		Labels:      make([]string, 0, len(points)),
		RevenueData: make([]float64, 0, len(points)),
		ProfitData:  make([]float64, 0, len(points)),
	}
	for _, p := range points {
		resp.Labels = append(resp.Labels, p.Label.String())
		resp.RevenueData = append(resp.RevenueData, p.Revenue.Amount())
		resp.ProfitData = append(resp.ProfitData, p.Profit.Amount())
	}
	return resp
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, errorResponse{Detail: detail})
}

// respondDomainError maps core errors onto HTTP status codes.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, core.ErrInsufficientStock):
		respondError(w, http.StatusConflict, core.ErrInsufficientStock.Error())
	case errors.Is(err, core.ErrEmptyItemName),
		errors.Is(err, core.ErrItemNameTooLong),
		errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrNegativeStock),
		errors.Is(err, core.ErrNegativeReorder),
		errors.Is(err, core.ErrInvalidDate):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads and decodes a request body, rejecting unknown fields so
// client typos surface as errors instead of silently dropped data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
