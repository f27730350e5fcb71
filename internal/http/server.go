// Package http exposes the JSON API over the ledger services.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"moneytracker/internal/cache"
	"moneytracker/internal/core"
	"moneytracker/internal/services"
	"moneytracker/internal/store"
)

type Server struct {
	http.Server
	store       store.Store
	ledger      *services.LedgerService
	identity    *services.IdentityService
	rateLimiter *rateLimiter

	// Dashboard aggregates are recomputed from the full transaction
	// set, so cache them per user and drop the entry on every write.
	dashboardCache *cache.LRU[core.DashboardSummary]
	statsCache     *cache.LRU[map[string]core.SourceStats]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and returns a ready-to-run http.Server.
func NewServer(addr string, st store.Store, ledger *services.LedgerService, ident *services.IdentityService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:            st,
		ledger:           ledger,
		identity:         ident,
		rateLimiter:      newRateLimiter(),
		dashboardCache:   cache.NewLRU[core.DashboardSummary](100, 5*time.Minute),
		statsCache:       cache.NewLRU[map[string]core.SourceStats](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/users", s.withSecurityHeaders(s.handleEnsureUser))
	mux.HandleFunc("GET /api/users/{id}", s.withSecurityHeaders(s.handleGetUser))
	mux.HandleFunc("POST /api/users/migrate", s.withSecurityHeaders(s.handleMigrateUser))

	mux.HandleFunc("POST /api/sources", s.withSecurityHeaders(s.handleCreateSource))
	mux.HandleFunc("GET /api/sources", s.withSecurityHeaders(s.handleListSources))
	mux.HandleFunc("GET /api/sources/{id}", s.withSecurityHeaders(s.handleGetSource))
	mux.HandleFunc("PATCH /api/sources/{id}", s.withSecurityHeaders(s.handleUpdateSource))
	mux.HandleFunc("GET /api/sources/{id}/balance", s.withSecurityHeaders(s.handleSourceBalance))
	mux.HandleFunc("GET /api/sources/{id}/transactions", s.withSecurityHeaders(s.handleSourceTransactions))

	mux.HandleFunc("POST /api/categories", s.withSecurityHeaders(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories", s.withSecurityHeaders(s.handleListCategories))
	mux.HandleFunc("POST /api/categories/defaults", s.withSecurityHeaders(s.handleDefaultCategories))

	mux.HandleFunc("POST /api/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("POST /api/transfers", s.withSecurityHeaders(s.handleCreateTransfer))
	mux.HandleFunc("POST /api/adjustments", s.withSecurityHeaders(s.handleCreateAdjustment))

	mux.HandleFunc("GET /api/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("GET /api/stats", s.withSecurityHeaders(s.handleStats))

	return s
}

// startCacheCleanup runs periodic cleanup for the aggregate caches.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			dashCleaned := s.dashboardCache.CleanExpired()
			statsCleaned := s.statsCache.CleanExpired()
			if dashCleaned > 0 || statsCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					"dashboard_entries_removed", dashCleaned,
					"stats_entries_removed", statsCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateAggregates drops a user's cached dashboard after any write.
func (s *Server) invalidateAggregates(userID string) {
	s.dashboardCache.Delete(userID)
	s.statsCache.Delete(userID)
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

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
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutating requests only
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

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
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
