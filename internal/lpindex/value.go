package lpindex

import (
	"math"

	"evegem/internal/catalog"
)

// DayValue computes the net ISK value per loyalty point for one offer on one
// date. The same function feeds both weight computation and the daily series
// so the two can never drift apart.
//
// The date is skipped (ok=false) when the offer's own item has no priced
// record that day, when ANY required item lacks a priced record that day
// (all-or-nothing on the bill of materials), or when the result is not
// finite. The returned volume is the item's traded volume that day, zero
// when unrecorded.
func DayValue(o catalog.Offer, date string, h Histories) (value, volume float64, ok bool) {
	table := h[o.ItemID]
	if table == nil {
		return 0, 0, false
	}
	day, exists := table[date]
	if !exists || day.Average == nil {
		return 0, 0, false
	}
	sell := *day.Average

	reqCost := 0.0
	for _, r := range o.RequiredItems {
		reqTable := h[r.TypeID]
		if reqTable == nil {
			return 0, 0, false
		}
		reqDay, exists := reqTable[date]
		if !exists || reqDay.Average == nil {
			return 0, 0, false
		}
		reqCost += *reqDay.Average * r.Qty
	}

	revenue := sell * float64(o.Qty)
	net := revenue - o.IskCost - reqCost
	value = net / o.LpCost
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, 0, false
	}

	if day.Volume != nil {
		volume = *day.Volume
	}
	return value, volume, true
}
