package lpindex

import (
	"math"
	"sort"

	"evegem/internal/catalog"
)

// ComputeWeights assigns each selected offer a fixed, period-constant weight
// and returns the final basket, sorted by descending weight and truncated to
// limit. Weight is max(0, base) * max(0, avgVol) where base and avgVol are
// period averages over the dates the offer had usable data. An offer with no
// usable days at all is dropped entirely: a mean over zero samples is
// undefined, not zero. Offers with zero or non-finite weight are dropped
// too, so every basket member contributes to the coverage denominator.
func ComputeWeights(selected []catalog.Offer, dates []string, h Histories, limit int) []BasketEntry {
	basket := make([]BasketEntry, 0, len(selected))
	for _, o := range selected {
		var values, vols []float64
		for _, date := range dates {
			v, vol, ok := DayValue(o, date, h)
			if !ok {
				continue
			}
			values = append(values, v)
			vols = append(vols, vol)
		}
		base, baseOK := mean(values)
		avgVol, volOK := mean(vols)
		if !baseOK || !volOK {
			continue
		}
		weight := math.Max(0, base) * math.Max(0, avgVol)
		if weight == 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			continue
		}
		basket = append(basket, BasketEntry{Offer: o, Weight: weight, Base: base, AvgVol: avgVol})
	}

	// Stable: equal weights keep selection order, for deterministic output.
	sort.SliceStable(basket, func(i, j int) bool {
		return basket[i].Weight > basket[j].Weight
	})
	if len(basket) > limit {
		basket = basket[:limit]
	}
	return basket
}

// mean returns the arithmetic mean and whether it is defined (non-empty
// input).
func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}
