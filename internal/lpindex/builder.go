package lpindex

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"evegem/internal/cache"
	"evegem/internal/catalog"
)

// HistorySource supplies per-date price/volume lookup tables per item.
// Implementations absorb their own failures: an item whose lookup failed or
// returned nothing reports ok=false and is simply absent from the build.
type HistorySource interface {
	History(ctx context.Context, regionID, typeID int32) (HistoryTable, bool)
}

// Request identifies one index build.
type Request struct {
	CorpID      int32
	RegionID    int32
	Days        int
	BasketLimit int
}

// CacheKey is the relative path the built document is cached under.
func (r Request) CacheKey() string {
	return fmt.Sprintf("lp_corp_index/%d/%d_%d_%d.json", r.RegionID, r.CorpID, r.Days, r.BasketLimit)
}

// Builder runs index builds against a catalog, a history source, and an
// output cache. Both the HTTP handler and the batch pre-warmer go through
// the same Builder, with only their freshness threshold differing.
type Builder struct {
	Catalog     *catalog.Catalog
	History     HistorySource
	Cache       cache.Store
	Concurrency int // max simultaneous history lookups per build

	now func() time.Time // overridable in tests
}

// NewBuilder creates a Builder with the given collaborators.
func NewBuilder(cat *catalog.Catalog, history HistorySource, store cache.Store, concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = 6
	}
	return &Builder{
		Catalog:     cat,
		History:     history,
		Cache:       store,
		Concurrency: concurrency,
		now:         time.Now,
	}
}

// Build computes the index document for one request, always recomputing.
// Only a structural failure (unreadable offer catalog) is an error; missing
// history is expressed in the data. An empty offer catalog for the corp
// yields an empty-series document without any history lookups.
func (b *Builder) Build(ctx context.Context, req Request) (*Document, error) {
	offers, err := b.Catalog.OffersFor(req.CorpID)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		CorpID:   req.CorpID,
		RegionID: req.RegionID,
		Days:     req.Days,
		Series:   []SeriesPoint{},
		Meta: Meta{
			BasketLimit: req.BasketLimit,
			Generated:   b.now().UTC().Format(time.RFC3339),
		},
	}
	if len(offers) == 0 {
		return doc, nil
	}

	selected := SelectBasket(offers, req.Days, req.BasketLimit)
	histories := b.gatherHistories(ctx, req.RegionID, selected)
	dates := Window(req.Days, b.now())

	basket := ComputeWeights(selected, dates, histories, req.BasketLimit)
	doc.Series = BuildSeries(basket, dates, histories)
	doc.Meta.BasketSize = len(basket)
	return doc, nil
}

// BuildCached returns the cached document younger than ttl, or rebuilds,
// persists, and returns it. Concurrent builds for the same key are not
// deduplicated; both recompute and the later write wins. The
// empty-catalog document is returned but never persisted.
func (b *Builder) BuildCached(ctx context.Context, req Request, ttl time.Duration) ([]byte, error) {
	key := req.CacheKey()
	if raw, ok := b.Cache.Get(key, ttl); ok {
		return raw, nil
	}

	doc, err := b.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if len(doc.Series) > 0 {
		if err := b.Cache.Put(key, raw); err != nil {
			return nil, fmt.Errorf("persist index: %w", err)
		}
	}
	return raw, nil
}

// gatherHistories fetches the lookup tables for every item id the basket
// touches (offer items plus all required items), at most b.Concurrency
// lookups in flight at a time. A failed or empty lookup leaves its item
// absent without affecting the others.
func (b *Builder) gatherHistories(ctx context.Context, regionID int32, selected []catalog.Offer) Histories {
	ids := make(map[int32]bool)
	for _, o := range selected {
		ids[o.ItemID] = true
		for _, r := range o.RequiredItems {
			ids[r.TypeID] = true
		}
	}

	var mu sync.Mutex
	histories := make(Histories, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Concurrency)
	for id := range ids {
		g.Go(func() error {
			table, ok := b.History.History(gctx, regionID, id)
			if !ok || len(table) == 0 {
				return nil
			}
			mu.Lock()
			histories[id] = table
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return histories
}
