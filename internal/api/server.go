package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"evegem/internal/config"
	"evegem/internal/esi"
	"evegem/internal/history"
	"evegem/internal/lpindex"
)

// Server is the HTTP API over the index builder and the cached market data.
type Server struct {
	cfg     *config.Config
	builder *lpindex.Builder
	history *history.Source
	esi     *esi.Client
	started time.Time

	// Buy-order snapshot cache (TTL from config) to avoid hammering ESI
	// with full order-book pagination on every chart click.
	buyMu    sync.RWMutex
	buyCache map[string]buyCacheEntry
}

type buyCacheEntry struct {
	ts      time.Time
	payload *buyOrdersResponse
}

// NewServer creates a Server with the given collaborators.
func NewServer(cfg *config.Config, builder *lpindex.Builder, hist *history.Source, client *esi.Client) *Server {
	return &Server{
		cfg:      cfg,
		builder:  builder,
		history:  hist,
		esi:      client,
		started:  time.Now(),
		buyCache: make(map[string]buyCacheEntry),
	}
}

// Handler returns the HTTP handler with all API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/lp_corp_index", s.handleLPCorpIndex)
	mux.HandleFunc("GET /api/market_history", s.handleMarketHistory)
	mux.HandleFunc("GET /api/buy_orders", s.handleBuyOrders)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":        "ok",
		"uptimeSeconds": int(time.Since(s.started).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
