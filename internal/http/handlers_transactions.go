package http

import (
	"fmt"
	"net/http"

	"bottega/internal/core"
)

// transactionRequest is the write payload for sales. Pointer fields
// distinguish "absent" from zero so PUT can merge partial updates.
type transactionRequest struct {
	ItemName        *string  `json:"item_name"`
	PurchaseCost    *float64 `json:"purchase_cost"`
	RetailPrice     *float64 `json:"retail_price"`
	Quantity        *int     `json:"quantity"`
	DateSold        *string  `json:"date_sold"`
	InventoryItemID *string  `json:"inventory_item_id"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	sales, err := s.svc.ListSales(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(sales))
	for _, t := range sales {
		out = append(out, toTransactionResponse(t))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.GetSale(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t := core.Transaction{}
	if req.ItemName != nil {
		t.ItemName = sanitizeInput(*req.ItemName)
	}
	if req.Quantity != nil {
		t.Quantity = *req.Quantity
	}
	if req.InventoryItemID != nil {
		t.InventoryItemID = sanitizeInput(*req.InventoryItemID)
	}

	// Linked sales may omit cost and price, they inherit the inventory
	// item's values. Unlinked sales must carry both.
	if t.InventoryItemID == "" {
		if req.PurchaseCost == nil {
			respondDomainError(w, r, fmt.Errorf("purchase_cost is required: %w", core.ErrInvalidAmount))
			return
		}
		if req.RetailPrice == nil {
			respondDomainError(w, r, fmt.Errorf("retail_price is required: %w", core.ErrInvalidAmount))
			return
		}
	}

	if req.PurchaseCost != nil {
		cost, err := core.MoneyFromAmount(*req.PurchaseCost)
		if err != nil {
			respondDomainError(w, r, err)
			return
		}
		t.PurchaseCost = cost
	}
	if req.RetailPrice != nil {
		price, err := core.MoneyFromAmount(*req.RetailPrice)
		if err != nil {
			respondDomainError(w, r, err)
			return
		}
		t.RetailPrice = price
	}

	if req.DateSold == nil {
		respondDomainError(w, r, core.ErrInvalidDate)
		return
	}
	date, err := core.ParseDate(*req.DateSold)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	t.DateSold = date

	saved, err := s.svc.RecordSale(r.Context(), t)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateSalesCaches()
	if saved.InventoryItemID != "" {
		s.invalidateInventoryCaches()
	}
	respondJSON(w, http.StatusCreated, toTransactionResponse(saved))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := s.svc.GetSale(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	// Merge provided fields over the stored record
	if req.ItemName != nil {
		t.ItemName = sanitizeInput(*req.ItemName)
	}
	if req.Quantity != nil {
		t.Quantity = *req.Quantity
	}
	if req.InventoryItemID != nil {
		t.InventoryItemID = sanitizeInput(*req.InventoryItemID)
	}
	if req.PurchaseCost != nil {
		cost, err := core.MoneyFromAmount(*req.PurchaseCost)
		if err != nil {
			respondDomainError(w, r, err)
			return
		}
		t.PurchaseCost = cost
	}
	if req.RetailPrice != nil {
		price, err := core.MoneyFromAmount(*req.RetailPrice)
		if err != nil {
			respondDomainError(w, r, err)
			return
		}
		t.RetailPrice = price
	}
	if req.DateSold != nil {
		date, err := core.ParseDate(*req.DateSold)
		if err != nil {
			respondDomainError(w, r, err)
			return
		}
		t.DateSold = date
	}

	updated, err := s.svc.UpdateSale(r.Context(), t)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateSalesCaches()
	respondJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteSale(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.invalidateSalesCaches()
	w.WriteHeader(http.StatusNoContent)
}
