package lpindex

import (
	"sort"

	"evegem/internal/catalog"
)

// SelectBasket picks up to limit offers likely to be both profitable and
// liquid, using only snapshot metrics already present in the catalog so no
// history has to be fetched for rejected offers.
//
// Score is iskPerLp times the rolling daily volume: the 14-day figure for
// short windows, the 30-day figure otherwise, falling back to the generic
// volumePerDay field and then to zero. Offers with non-positive score,
// non-positive LP cost, or non-positive quantity are never selected.
func SelectBasket(offers []catalog.Offer, days, limit int) []catalog.Offer {
	type scored struct {
		offer catalog.Offer
		score float64
	}

	candidates := make([]scored, 0, len(offers))
	for _, o := range offers {
		if o.LpCost <= 0 || o.Qty <= 0 {
			continue
		}
		var vol float64
		switch {
		case days <= 14 && o.VolumePerDay14 != nil:
			vol = *o.VolumePerDay14
		case days > 14 && o.VolumePerDay30 != nil:
			vol = *o.VolumePerDay30
		case o.VolumePerDay != nil:
			vol = *o.VolumePerDay
		}
		var iskPerLp float64
		if o.IskPerLp != nil {
			iskPerLp = *o.IskPerLp
		}
		score := iskPerLp * vol
		if score <= 0 {
			continue
		}
		candidates = append(candidates, scored{offer: o, score: score})
	}

	// Stable sort keeps catalog order for equal scores, so repeated builds
	// from identical inputs pick an identical basket.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	selected := make([]catalog.Offer, len(candidates))
	for i, c := range candidates {
		selected[i] = c.offer
	}
	return selected
}
