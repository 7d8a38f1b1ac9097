// Package etl builds the LP store catalog files the server reads: it walks
// every NPC corporation with an LP store, pulls its offers from ESI, prices
// each offer against a regional market snapshot and writes json/lp_corps.json
// and json/lp_offers.json.
package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"evegem/internal/catalog"
	"evegem/internal/esi"
	"evegem/internal/history"
	"evegem/internal/logger"
	"evegem/internal/sde"
)

// Worker runs one catalog build.
type Worker struct {
	ESI         *esi.Client
	SDE         *sde.Data
	History     *history.Source
	DataDir     string
	RegionID    int32
	Concurrency int
}

// New creates a Worker pricing offers against the given region.
func New(client *esi.Client, data *sde.Data, hist *history.Source, dataDir string, regionID int32, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		ESI:         client,
		SDE:         data,
		History:     hist,
		DataDir:     dataDir,
		RegionID:    regionID,
		Concurrency: concurrency,
	}
}

// typeSnapshot is the per-item market data an offer is priced with. Nil
// fields mean the item had no orders or no history in the region.
type typeSnapshot struct {
	sellMin *float64
	vol14   *float64
	vol30   *float64
}

// Run executes the full pipeline: corp discovery, offer fetch, market
// snapshot, pricing, output.
func (w *Worker) Run(ctx context.Context) error {
	corpIDs := w.SDE.LPStoreCorpIDs()
	if len(corpIDs) == 0 {
		return fmt.Errorf("no LP store corporations in SDE data")
	}
	hiddenCorps := w.loadHiddenCorps()

	logger.Section("LP Catalog Build")
	logger.Info("ETL", fmt.Sprintf("Fetching offers for %d corporations (concurrency %d)", len(corpIDs), w.Concurrency))
	offersByCorp, err := w.fetchAllOffers(ctx, corpIDs, hiddenCorps)
	if err != nil {
		return err
	}

	typeIDs := collectTypeIDs(offersByCorp, w.SDE)
	logger.Info("ETL", fmt.Sprintf("Snapshotting market data for %d types in region %d", len(typeIDs), w.RegionID))
	snapshots, err := w.snapshotMarket(ctx, typeIDs)
	if err != nil {
		return err
	}

	catalogByCorp := w.priceOffers(offersByCorp, snapshots)
	corps := w.buildCorpDirectory(catalogByCorp)

	if err := w.writeOutputs(catalogByCorp, corps); err != nil {
		return err
	}

	totalOffers := 0
	for _, list := range catalogByCorp {
		totalOffers += len(list)
	}
	logger.Section("Catalog Statistics")
	logger.Stats("Corporations", len(corps))
	logger.Stats("Offers", totalOffers)
	logger.Stats("Priced types", len(snapshots))
	logger.Success("ETL", "Catalog build complete")
	return nil
}

// fetchAllOffers pulls the LP store of every corp with bounded concurrency.
// A corp without a store contributes nothing; a fetch that fails after
// retries fails the build, since a partial catalog would silently shrink the
// site.
func (w *Worker) fetchAllOffers(ctx context.Context, corpIDs []int32, hidden map[int32]bool) (map[int32][]esi.LoyaltyOffer, error) {
	var mu sync.Mutex
	out := make(map[int32][]esi.LoyaltyOffer)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.Concurrency)

	var done int
	for _, corpID := range corpIDs {
		if hidden[corpID] {
			continue
		}
		corpID := corpID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			offers, err := w.ESI.FetchLoyaltyOffers(corpID)
			if err != nil {
				return fmt.Errorf("loyalty offers corp %d: %w", corpID, err)
			}
			mu.Lock()
			if len(offers) > 0 {
				out[corpID] = offers
			}
			done++
			if done%25 == 0 {
				logger.Info("ETL", fmt.Sprintf("%d/%d corporations fetched", done, len(corpIDs)))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// collectTypeIDs gathers every offered and required item that is marketable.
// Non-marketable types (no marketGroupID in the SDE) have no order book and
// are skipped rather than probed.
func collectTypeIDs(offersByCorp map[int32][]esi.LoyaltyOffer, data *sde.Data) []int32 {
	seen := make(map[int32]bool)
	for _, offers := range offersByCorp {
		for _, o := range offers {
			seen[o.TypeID] = true
			for _, r := range o.RequiredItems {
				seen[r.TypeID] = true
			}
		}
	}
	ids := make([]int32, 0, len(seen))
	for id := range seen {
		if t, ok := data.Types[id]; ok && !t.Marketable {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// snapshotMarket fetches sell orders and daily volumes for each type. A type
// whose lookups fail is recorded with empty fields so its offers still appear
// in the catalog, just unpriced.
func (w *Worker) snapshotMarket(ctx context.Context, typeIDs []int32) (map[int32]typeSnapshot, error) {
	var mu sync.Mutex
	out := make(map[int32]typeSnapshot)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.Concurrency)

	var done int
	for _, typeID := range typeIDs {
		typeID := typeID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var snap typeSnapshot
			if orders, err := w.ESI.FetchSellOrders(w.RegionID, typeID); err == nil {
				if p := esi.MinSellPrice(orders); p > 0 {
					snap.sellMin = &p
				}
			} else {
				logger.Warn("ETL", fmt.Sprintf("sell orders type %d: %v", typeID, err))
			}
			if entries, err := w.History.Entries(ctx, w.RegionID, typeID); err == nil {
				snap.vol14 = volumePerDay(entries, 14)
				snap.vol30 = volumePerDay(entries, 30)
			} else if ctx.Err() != nil {
				return err
			} else {
				logger.Warn("ETL", fmt.Sprintf("history type %d: %v", typeID, err))
			}
			mu.Lock()
			out[typeID] = snap
			done++
			if done%100 == 0 {
				logger.Info("ETL", fmt.Sprintf("%d/%d types snapshotted", done, len(typeIDs)))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// volumePerDay is the mean daily volume over the last window entries of the
// series, nil when the series is empty. A series shorter than the window
// averages over what exists.
func volumePerDay(entries []esi.HistoryEntry, window int) *float64 {
	if len(entries) == 0 {
		return nil
	}
	start := len(entries) - window
	if start < 0 {
		start = 0
	}
	slice := entries[start:]
	var sum float64
	for _, e := range slice {
		sum += float64(e.Volume)
	}
	v := sum / float64(len(slice))
	return &v
}

// priceOffers joins the raw ESI offers with SDE names and the market
// snapshot into catalog entries.
func (w *Worker) priceOffers(offersByCorp map[int32][]esi.LoyaltyOffer, snapshots map[int32]typeSnapshot) map[int32][]catalog.Offer {
	out := make(map[int32][]catalog.Offer, len(offersByCorp))
	for corpID, offers := range offersByCorp {
		list := make([]catalog.Offer, 0, len(offers))
		for _, o := range offers {
			qty := o.Quantity
			if qty <= 0 {
				qty = 1
			}

			required := make([]catalog.RequiredItem, 0, len(o.RequiredItems))
			reqCost := 0.0
			for _, r := range o.RequiredItems {
				required = append(required, catalog.RequiredItem{
					TypeID: r.TypeID,
					Name:   w.SDE.TypeName(r.TypeID),
					Qty:    float64(r.Quantity),
				})
				if s, ok := snapshots[r.TypeID]; ok && s.sellMin != nil {
					reqCost += *s.sellMin * float64(r.Quantity)
				}
			}
			if len(required) == 0 {
				required = nil
			}

			entry := catalog.Offer{
				ID:            o.OfferID,
				CorpID:        corpID,
				ItemID:        o.TypeID,
				ItemName:      w.SDE.TypeName(o.TypeID),
				LpCost:        o.LpCost,
				IskCost:       o.IskCost,
				Qty:           qty,
				RequiredItems: required,
			}

			snap := snapshots[o.TypeID]
			entry.VolumePerDay14 = snap.vol14
			entry.VolumePerDay30 = snap.vol30
			if snap.vol14 != nil {
				entry.VolumePerDay = snap.vol14
			} else {
				entry.VolumePerDay = snap.vol30
			}
			if snap.sellMin != nil && o.LpCost > 0 {
				net := *snap.sellMin*float64(qty) - o.IskCost - reqCost
				ipl := net / o.LpCost
				entry.IskPerLp = &ipl
			}

			list = append(list, entry)
		}
		out[corpID] = list
	}
	return out
}

// buildCorpDirectory lists the corporations that ended up with offers,
// sorted by name.
func (w *Worker) buildCorpDirectory(catalogByCorp map[int32][]catalog.Offer) []catalog.Corp {
	corps := make([]catalog.Corp, 0, len(catalogByCorp))
	for corpID := range catalogByCorp {
		c := catalog.Corp{CorpID: corpID, Name: fmt.Sprintf("Corp %d", corpID)}
		if sc, ok := w.SDE.Corps[corpID]; ok {
			c.Name = sc.Name
			c.Faction = w.SDE.FactionName(sc.FactionID)
		}
		corps = append(corps, c)
	}
	sort.Slice(corps, func(i, j int) bool { return corps[i].Name < corps[j].Name })
	return corps
}

func (w *Worker) writeOutputs(catalogByCorp map[int32][]catalog.Offer, corps []catalog.Corp) error {
	jsonDir := filepath.Join(w.DataDir, "json")
	if err := os.MkdirAll(jsonDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	offersOut := make(map[string][]catalog.Offer, len(catalogByCorp))
	for corpID, list := range catalogByCorp {
		offersOut[strconv.Itoa(int(corpID))] = list
	}
	raw, err := json.Marshal(offersOut)
	if err != nil {
		return fmt.Errorf("encode offers: %w", err)
	}
	if err := os.WriteFile(filepath.Join(jsonDir, "lp_offers.json"), raw, 0o644); err != nil {
		return fmt.Errorf("write offers: %w", err)
	}

	corpsDoc := struct {
		Corps []catalog.Corp `json:"corps"`
	}{Corps: corps}
	raw, err = json.MarshalIndent(corpsDoc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode corps: %w", err)
	}
	if err := os.WriteFile(filepath.Join(jsonDir, "lp_corps.json"), raw, 0o644); err != nil {
		return fmt.Errorf("write corps: %w", err)
	}
	return nil
}

// loadHiddenCorps reads the operator corp hide-list from
// config/lp_corps_config.json. A missing or malformed file hides nothing.
func (w *Worker) loadHiddenCorps() map[int32]bool {
	hidden := make(map[int32]bool)
	raw, err := os.ReadFile(filepath.Join(w.DataDir, "config", "lp_corps_config.json"))
	if err != nil {
		return hidden
	}
	var cfg struct {
		Corps map[string]struct {
			Hide bool `json:"hide"`
		} `json:"corps"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return hidden
	}
	for id, v := range cfg.Corps {
		if !v.Hide {
			continue
		}
		if n, err := strconv.Atoi(id); err == nil {
			hidden[int32(n)] = true
		}
	}
	return hidden
}
