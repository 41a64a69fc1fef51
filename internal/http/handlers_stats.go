package http

import (
	"log/slog"
	"net/http"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if stats, found := s.dashboardCache.Get(cacheKeyDashboard); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit")
		respondJSON(w, http.StatusOK, toDashboardResponse(stats))
		return
	}

	stats, err := s.svc.DashboardStats(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.dashboardCache.Set(cacheKeyDashboard, stats)
	respondJSON(w, http.StatusOK, toDashboardResponse(stats))
}

func (s *Server) handleInventoryStats(w http.ResponseWriter, r *http.Request) {
	if stats, found := s.invStatsCache.Get(cacheKeyInventoryStats); found {
		slog.DebugContext(r.Context(), "Inventory stats cache hit")
		respondJSON(w, http.StatusOK, toInventoryStatsResponse(stats))
		return
	}

	stats, err := s.svc.InventoryStats(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invStatsCache.Set(cacheKeyInventoryStats, stats)
	respondJSON(w, http.StatusOK, toInventoryStatsResponse(stats))
}

func (s *Server) handleSalesChart(w http.ResponseWriter, r *http.Request) {
	if points, found := s.chartCache.Get(cacheKeySalesChart); found {
		slog.DebugContext(r.Context(), "Sales chart cache hit")
		respondJSON(w, http.StatusOK, toSalesChartResponse(points))
		return
	}

	points, err := s.svc.SalesChart(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.chartCache.Set(cacheKeySalesChart, points)
	respondJSON(w, http.StatusOK, toSalesChartResponse(points))
}
