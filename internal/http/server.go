// Package http exposes the balance and ledger API over JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/glopmts/my-finance-sub000/internal/cache"
	"github.com/glopmts/my-finance-sub000/internal/core"
	applog "github.com/glopmts/my-finance-sub000/internal/log"
	"github.com/glopmts/my-finance-sub000/internal/services"
)

// TransactionStore is the ledger surface the transaction handlers need.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	ListMonthTransactions(ctx context.Context, userID string, year, month int) ([]core.Transaction, error)
	ListUserTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

type Server struct {
	http.Server
	balances     *services.BalanceService
	folders      *services.FolderService
	transactions TransactionStore
	rateLimiter  *rateLimiter
	logger       *applog.Logger

	// Read-side cache for balance lookups. Writes to the ledger and
	// month closes invalidate the affected keys.
	balanceCache *cache.LRUCache[cachedBalance]
	historyCache *cache.LRUCache[[]core.MonthlyBalance]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, balances *services.BalanceService, folders *services.FolderService, transactions TransactionStore, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		balances:         balances,
		folders:          folders,
		transactions:     transactions,
		rateLimiter:      newRateLimiter(),
		logger:           logger.WithComponent(applog.ComponentHTTP),
		balanceCache:     cache.NewLRUCache[cachedBalance](200, 30*time.Second),
		historyCache:     cache.NewLRUCache[[]core.MonthlyBalance](100, 30*time.Second),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/v1/balances/current", s.withMiddleware(s.handleCurrentBalance))
	mux.HandleFunc("POST /api/v1/balances/check-month", s.withMiddleware(s.handleCheckMonth))
	mux.HandleFunc("POST /api/v1/balances/close", s.withMiddleware(s.handleCloseMonth))
	mux.HandleFunc("GET /api/v1/balances/history", s.withMiddleware(s.handleHistory))

	mux.HandleFunc("POST /api/v1/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/v1/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("POST /api/v1/folders", s.withMiddleware(s.handleCreateFolder))
	mux.HandleFunc("GET /api/v1/folders", s.withMiddleware(s.handleListFolders))
	mux.HandleFunc("GET /api/v1/folders/overview", s.withMiddleware(s.handleFolderOverview))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			balancesCleaned := s.balanceCache.CleanExpired()
			historyCleaned := s.historyCache.CleanExpired()
			if balancesCleaned > 0 || historyCleaned > 0 {
				s.logger.Debug("Cache cleanup completed",
					"balance_entries_removed", balancesCleaned,
					"history_entries_removed", historyCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
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

// withMiddleware adds security headers, rate limiting on writes, request
// IDs, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

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

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Ready once the service wiring is in place. The SQLite handle is
	// validated at startup, so a running server is a ready server.
	if s.balances == nil || s.transactions == nil {
		writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Simple in-memory rate limiter keyed by client IP.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= 60
}
