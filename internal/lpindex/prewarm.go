package lpindex

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"evegem/internal/logger"
)

// Prewarm rebuilds the index for every corporation in the catalog whose
// cached output is stale or missing, skipping fresh entries. Corporations
// with no visible offers are skipped without writing anything. Returns the
// number of documents built and skipped.
func (b *Builder) Prewarm(ctx context.Context, regionID int32, days, limit int, ttl time.Duration) (built, skipped int, err error) {
	corps, err := b.Catalog.Corps()
	if err != nil {
		return 0, 0, err
	}

	for i, corp := range corps {
		if ctx.Err() != nil {
			return built, skipped, ctx.Err()
		}

		req := Request{CorpID: corp.CorpID, RegionID: regionID, Days: days, BasketLimit: limit}
		if _, ok := b.Cache.Get(req.CacheKey(), ttl); ok {
			skipped++
			continue
		}

		doc, err := b.Build(ctx, req)
		if err != nil {
			return built, skipped, err
		}
		if len(doc.Series) == 0 {
			skipped++
			continue
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return built, skipped, err
		}
		if err := b.Cache.Put(req.CacheKey(), raw); err != nil {
			return built, skipped, fmt.Errorf("persist index for corp %d: %w", corp.CorpID, err)
		}
		built++

		if (built+skipped)%25 == 0 || i == len(corps)-1 {
			logger.Info("Prewarm", fmt.Sprintf("%d/%d built=%d skipped=%d", i+1, len(corps), built, skipped))
		}
	}
	return built, skipped, nil
}
