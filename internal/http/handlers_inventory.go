package http

import (
	"net/http"

	"bottega/internal/core"
)

// inventoryItemRequest is the write payload for inventory items. Pointer
// fields distinguish "absent" from zero so PUT can merge partial updates.
type inventoryItemRequest struct {
	ItemName             *string  `json:"item_name"`
	PurchaseCost         *float64 `json:"purchase_cost"`
	SuggestedRetailPrice *float64 `json:"suggested_retail_price"`
	QuantityInStock      *int     `json:"quantity_in_stock"`
	ReorderLevel         *int     `json:"reorder_level"`
	Supplier             *string  `json:"supplier"`
	Category             *string  `json:"category"`
}

// apply merges the provided fields onto item. Money conversions are the
// only way this can fail.
func (req inventoryItemRequest) apply(item *core.InventoryItem) error {
	if req.ItemName != nil {
		item.ItemName = sanitizeInput(*req.ItemName)
	}
	if req.PurchaseCost != nil {
		cost, err := core.MoneyFromAmount(*req.PurchaseCost)
		if err != nil {
			return err
		}
		item.PurchaseCost = cost
	}
	if req.SuggestedRetailPrice != nil {
		price, err := core.MoneyFromAmount(*req.SuggestedRetailPrice)
		if err != nil {
			return err
		}
		item.SuggestedRetailPrice = price
	}
	if req.QuantityInStock != nil {
		item.QuantityInStock = *req.QuantityInStock
	}
	if req.ReorderLevel != nil {
		item.ReorderLevel = *req.ReorderLevel
	}
	if req.Supplier != nil {
		item.Supplier = sanitizeInput(*req.Supplier)
	}
	if req.Category != nil {
		item.Category = sanitizeInput(*req.Category)
	}
	return nil
}

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.ListInventory(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]inventoryItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, toInventoryItemResponse(i))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetInventoryItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.svc.GetInventoryItem(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toInventoryItemResponse(item))
}

func (s *Server) handleCreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req inventoryItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := core.InventoryItem{ReorderLevel: core.DefaultReorderLevel}
	if err := req.apply(&item); err != nil {
		respondDomainError(w, r, err)
		return
	}

	saved, err := s.svc.AddInventoryItem(r.Context(), item)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateInventoryCaches()
	respondJSON(w, http.StatusCreated, toInventoryItemResponse(saved))
}

func (s *Server) handleUpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req inventoryItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := s.svc.GetInventoryItem(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	if err := req.apply(&item); err != nil {
		respondDomainError(w, r, err)
		return
	}

	updated, err := s.svc.UpdateInventoryItem(r.Context(), item)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateInventoryCaches()
	respondJSON(w, http.StatusOK, toInventoryItemResponse(updated))
}

func (s *Server) handleDeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteInventoryItem(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.invalidateInventoryCaches()
	w.WriteHeader(http.StatusNoContent)
}
