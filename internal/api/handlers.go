package api

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"evegem/internal/esi"
	"evegem/internal/logger"
	"evegem/internal/lpindex"
)

// queryInt parses an integer query parameter, returning fallback when the
// parameter is absent. ok is false only for a present-but-invalid value.
func queryInt(r *http.Request, name string, fallback int) (v int, ok bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GET /api/lp_corp_index?corp=&region=&days=&limit=
func (s *Server) handleLPCorpIndex(w http.ResponseWriter, r *http.Request) {
	corpID, ok := queryInt(r, "corp", 0)
	if !ok || corpID <= 0 {
		writeError(w, 400, "corp is required")
		return
	}
	regionID, ok := queryInt(r, "region", int(s.cfg.DefaultRegionID))
	if !ok || regionID <= 0 {
		writeError(w, 400, "region is invalid")
		return
	}
	days, _ := queryInt(r, "days", 0)
	limit, _ := queryInt(r, "limit", 0)

	req := lpindex.Request{
		CorpID:      int32(corpID),
		RegionID:    int32(regionID),
		Days:        s.cfg.ClampDays(days),
		BasketLimit: s.cfg.ClampLimit(limit),
	}
	raw, err := s.builder.BuildCached(r.Context(), req, s.cfg.IndexTTL)
	if err != nil {
		logger.Error("Index", fmt.Sprintf("corp=%d region=%d: %v", corpID, regionID, err))
		writeError(w, 500, "index build failed")
		return
	}
	writeRawJSON(w, raw)
}

// historyPoint is one chart point of the market-history endpoint.
type historyPoint struct {
	Date    string   `json:"date"`
	Average *float64 `json:"average"`
	Volume  *float64 `json:"volume"`
}

type marketHistoryResponse struct {
	RegionID int32          `json:"regionId"`
	TypeID   int32          `json:"typeId"`
	Days     int            `json:"days"`
	Error    *string        `json:"error"`
	Series   []historyPoint `json:"series"`
}

// GET /api/market_history?region=&type=&days=
//
// History has no entries for days without trades, so for charting this
// returns the last N available points rather than the last N calendar days.
func (s *Server) handleMarketHistory(w http.ResponseWriter, r *http.Request) {
	regionID, ok := queryInt(r, "region", int(s.cfg.DefaultRegionID))
	if !ok || regionID <= 0 {
		writeError(w, 400, "region is invalid")
		return
	}
	typeID, ok := queryInt(r, "type", 0)
	if !ok || typeID <= 0 {
		writeError(w, 400, "type is required")
		return
	}
	days, _ := queryInt(r, "days", 0)
	days = s.cfg.ClampDays(days)

	resp := marketHistoryResponse{
		RegionID: int32(regionID),
		TypeID:   int32(typeID),
		Days:     days,
		Series:   []historyPoint{},
	}

	entries, err := s.history.Entries(r.Context(), int32(regionID), int32(typeID))
	if err != nil || len(entries) == 0 {
		msg := "no_data"
		resp.Error = &msg
		writeJSON(w, resp)
		return
	}

	sorted := make([]esi.HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })
	if len(sorted) > days {
		sorted = sorted[len(sorted)-days:]
	}
	for _, e := range sorted {
		avg, vol := e.Average, float64(e.Volume)
		resp.Series = append(resp.Series, historyPoint{Date: e.Date, Average: &avg, Volume: &vol})
	}
	writeJSON(w, resp)
}

type buyOrdersResponse struct {
	RegionID     int32             `json:"regionId"`
	TypeID       int32             `json:"typeId"`
	Updated      string            `json:"updated"`
	TTLSeconds   int               `json:"ttlSeconds"`
	Cached       bool              `json:"cached"`
	BestBuyPrice *float64          `json:"bestBuyPrice"`
	OrderCount   int               `json:"orderCount"`
	Orders       []esi.MarketOrder `json:"orders"`
	Error        *string           `json:"error"`
}

// GET /api/buy_orders?region=&type=
func (s *Server) handleBuyOrders(w http.ResponseWriter, r *http.Request) {
	regionID, ok := queryInt(r, "region", int(s.cfg.DefaultRegionID))
	if !ok || regionID <= 0 {
		writeError(w, 400, "region is invalid")
		return
	}
	typeID, ok := queryInt(r, "type", 0)
	if !ok || typeID <= 0 {
		writeError(w, 400, "type is required")
		return
	}

	key := fmt.Sprintf("%d:%d", regionID, typeID)
	s.buyMu.RLock()
	entry, hit := s.buyCache[key]
	s.buyMu.RUnlock()
	if hit && time.Since(entry.ts) < s.cfg.BuyOrdersTTL {
		cached := *entry.payload
		cached.Cached = true
		writeJSON(w, cached)
		return
	}

	payload := &buyOrdersResponse{
		RegionID:   int32(regionID),
		TypeID:     int32(typeID),
		Updated:    time.Now().UTC().Format(time.RFC3339),
		TTLSeconds: int(s.cfg.BuyOrdersTTL.Seconds()),
		Orders:     []esi.MarketOrder{},
	}
	orders, err := s.esi.FetchBuyOrders(int32(regionID), int32(typeID))
	if err != nil {
		msg := "no_data"
		payload.Error = &msg
	} else {
		payload.Orders = orders
		payload.OrderCount = len(orders)
		if best := esi.BestBuyPrice(orders); best > 0 {
			payload.BestBuyPrice = &best
		}
	}

	s.buyMu.Lock()
	s.buyCache[key] = buyCacheEntry{ts: time.Now(), payload: payload}
	s.buyMu.Unlock()

	writeJSON(w, *payload)
}
