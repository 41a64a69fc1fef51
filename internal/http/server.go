// Package http exposes the bookkeeping API: transaction and inventory
// CRUD plus the read-only dashboard, inventory stats and sales chart views.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"bottega/internal/cache"
	"bottega/internal/core"
	applog "bottega/internal/log"
	"bottega/internal/services"
)

// Cache keys for the three aggregate views. All writes invalidate them.
const (
	cacheKeyDashboard      = "dashboard"
	cacheKeyInventoryStats = "inventory-stats"
	cacheKeySalesChart     = "sales-chart"
)

type Server struct {
	http.Server
	svc         *services.Service
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	dashboardCache *cache.LRUCache[core.DashboardStats]
	invStatsCache  *cache.LRUCache[core.InventoryStats]
	chartCache     *cache.LRUCache[[]core.ChartPoint]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, svc *services.Service) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:            svc,
		rateLimiter:    newRateLimiter(),
		metrics:        &securityMetrics{},
		dashboardCache: cache.NewLRUCache[core.DashboardStats](10, time.Minute),
		invStatsCache:  cache.NewLRUCache[core.InventoryStats](10, time.Minute),
		chartCache:     cache.NewLRUCache[[]core.ChartPoint](10, time.Minute),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.Register(s.invStatsCache)
	s.cacheManager.Register(s.chartCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /api/{$}", s.withMiddleware(handleRoot))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/inventory", s.withMiddleware(s.handleListInventory))
	mux.HandleFunc("POST /api/inventory", s.withMiddleware(s.handleCreateInventoryItem))
	mux.HandleFunc("GET /api/inventory/{id}", s.withMiddleware(s.handleGetInventoryItem))
	mux.HandleFunc("PUT /api/inventory/{id}", s.withMiddleware(s.handleUpdateInventoryItem))
	mux.HandleFunc("DELETE /api/inventory/{id}", s.withMiddleware(s.handleDeleteInventoryItem))

	mux.HandleFunc("GET /api/dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("GET /api/inventory-stats", s.withMiddleware(s.handleInventoryStats))
	mux.HandleFunc("GET /api/sales-chart", s.withMiddleware(s.handleSalesChart))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.metrics.requestsTotal, 1)

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		// Rate limit mutating requests only, reads are cache-backed
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldComponent, applog.ComponentRateLimit,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		if rw.statusCode >= http.StatusInternalServerError {
			atomic.AddInt64(&s.metrics.errorsTotal, 1)
		}

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// invalidateSalesCaches drops aggregate views derived from transactions.
func (s *Server) invalidateSalesCaches() {
	s.dashboardCache.Delete(cacheKeyDashboard)
	s.chartCache.Delete(cacheKeySalesChart)
}

// invalidateInventoryCaches drops aggregate views derived from inventory.
func (s *Server) invalidateInventoryCaches() {
	s.invStatsCache.Delete(cacheKeyInventoryStats)
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Sales Tracking System API"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "bottega_requests_total %d\n", atomic.LoadInt64(&s.metrics.requestsTotal))
	fmt.Fprintf(w, "bottega_errors_total %d\n", atomic.LoadInt64(&s.metrics.errorsTotal))
	fmt.Fprintf(w, "bottega_rate_limit_hits_total %d\n", atomic.LoadInt64(&s.metrics.rateLimitHits))
}
