// Package history is the production HistorySource for the index builder: a
// read-through cache over ESI market history, persisted in SQLite with a
// configurable freshness threshold.
package history

import (
	"context"
	"fmt"
	"time"

	"evegem/internal/db"
	"evegem/internal/esi"
	"evegem/internal/logger"
	"evegem/internal/lpindex"
)

// Source caches ESI market history in SQLite. Negative results (types with
// no history in the region) are cached too, under the same TTL.
type Source struct {
	ESI *esi.Client
	DB  *db.DB
	TTL time.Duration
}

// New creates a Source with the given client, cache database and freshness
// threshold.
func New(client *esi.Client, database *db.DB, ttl time.Duration) *Source {
	return &Source{ESI: client, DB: database, TTL: ttl}
}

// History returns the per-date lookup table for one item in one region.
// Lookup failures are absorbed: a type with no data, or a fetch that fails
// after retries, reports ok=false and never aborts the caller's other
// lookups.
func (s *Source) History(ctx context.Context, regionID, typeID int32) (lpindex.HistoryTable, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	if entries, hit := s.DB.GetMarketHistory(regionID, typeID, s.TTL); hit {
		if entries == nil {
			return nil, false // cached negative result
		}
		return lpindex.TableFromEntries(entries), true
	}

	entries, err := s.ESI.FetchMarketHistory(regionID, typeID)
	if err == esi.ErrNotFound {
		s.DB.SetMarketHistory(regionID, typeID, nil)
		return nil, false
	}
	if err != nil {
		logger.Warn("History", fmt.Sprintf("region=%d type=%d: %v", regionID, typeID, err))
		return nil, false
	}

	s.DB.SetMarketHistory(regionID, typeID, entries)
	if len(entries) == 0 {
		return nil, false
	}
	return lpindex.TableFromEntries(entries), true
}

// Entries returns the raw cached-or-fetched history series for one item,
// used by the market-history API endpoint which serves points rather than
// lookup tables.
func (s *Source) Entries(ctx context.Context, regionID, typeID int32) ([]esi.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if entries, hit := s.DB.GetMarketHistory(regionID, typeID, s.TTL); hit {
		return entries, nil
	}

	entries, err := s.ESI.FetchMarketHistory(regionID, typeID)
	if err == esi.ErrNotFound {
		s.DB.SetMarketHistory(regionID, typeID, nil)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.DB.SetMarketHistory(regionID, typeID, entries)
	return entries, nil
}
