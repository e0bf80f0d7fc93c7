// Package statusapi serves a lightweight JSON status endpoint reporting the
// template provider engine's live state, adapted from the pool's operator
// dashboard API to this engine's much smaller surface.
package statusapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"sv2tpd/internal/audit"
)

// EngineStats is the subset of TemplateProvider the status endpoint reads.
type EngineStats interface {
	ConnectedClients() int
	CacheLen() int
	BestPrevHash() chainhash.Hash
	LastBlockTime() time.Time
}

// SubmissionSource is satisfied by *audit.Store.
type SubmissionSource interface {
	RecentSubmissions(ctx context.Context, limit int) ([]audit.SubmissionRow, error)
}

// Server serves the status HTTP endpoints.
type Server struct {
	engine     EngineStats
	audit      SubmissionSource
	mux        *http.ServeMux
	startedAt  time.Time
}

// New builds a status server. audit may be nil, in which case
// /status/submissions reports an empty list.
func New(engine EngineStats, audit SubmissionSource) *Server {
	s := &Server{
		engine:    engine,
		audit:     audit,
		mux:       http.NewServeMux(),
		startedAt: time.Now(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/status", s.corsMiddleware(s.handleStatus))
	s.mux.HandleFunc("/status/submissions", s.corsMiddleware(s.handleSubmissions))
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// Handler returns the HTTP handler for the status endpoints.
func (s *Server) Handler() http.Handler { return s.mux }

type statusResponse struct {
	GeneratedAt       time.Time `json:"generated_at"`
	UptimeSeconds     float64   `json:"uptime_seconds"`
	ConnectedClients  int       `json:"connected_clients"`
	CachedTemplates   int       `json:"cached_templates"`
	BestPrevHash      string    `json:"best_prev_hash"`
	LastBlockTime     time.Time `json:"last_block_time"`
	SecondsSinceBlock float64   `json:"seconds_since_block"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	// Snapshot everything under the engine's own locks first; serialize
	// outside of them.
	clients := s.engine.ConnectedClients()
	cacheLen := s.engine.CacheLen()
	bestPrevHash := s.engine.BestPrevHash()
	lastBlockTime := s.engine.LastBlockTime()

	resp := statusResponse{
		GeneratedAt:       time.Now().UTC(),
		UptimeSeconds:     time.Since(s.startedAt).Seconds(),
		ConnectedClients:  clients,
		CachedTemplates:   cacheLen,
		BestPrevHash:      bestPrevHash.String(),
		LastBlockTime:     lastBlockTime,
		SecondsSinceBlock: time.Since(lastBlockTime).Seconds(),
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	rows := []audit.SubmissionRow{}
	if s.audit != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		got, err := s.audit.RecentSubmissions(ctx, limit)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "audit store error")
			return
		}
		rows = append(rows, got...)
	}

	s.writeJSON(w, map[string]any{
		"submissions": rows,
		"count":       len(rows),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("statusapi: json encode error: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
