// Package lpindex builds the per-corporation loyalty-point profitability
// index: a bounded basket of LP store offers weighted by period average
// profitability and liquidity, reduced to one weighted value per day.
package lpindex

import (
	"evegem/internal/catalog"
	"evegem/internal/esi"
)

// DayRecord is one day of price/volume history for an item. Fields are
// pointers because "no data" must stay distinguishable from a literal zero:
// a nil Average makes the day unusable for the offer, a nil Volume counts
// as zero traded units.
type DayRecord struct {
	Average *float64
	Volume  *float64
}

// HistoryTable maps calendar date (YYYY-MM-DD) to that day's record for one
// item. Dates with no trades are simply absent.
type HistoryTable map[string]DayRecord

// Histories maps item id to its history table. An item with no available
// history is absent from the map.
type Histories map[int32]HistoryTable

// TableFromEntries converts an ESI history series into a per-date lookup
// table.
func TableFromEntries(entries []esi.HistoryEntry) HistoryTable {
	if len(entries) == 0 {
		return nil
	}
	table := make(HistoryTable, len(entries))
	for _, e := range entries {
		avg, vol := e.Average, float64(e.Volume)
		table[e.Date] = DayRecord{Average: &avg, Volume: &vol}
	}
	return table
}

// BasketEntry is one offer of the fixed basket with its frozen weight.
type BasketEntry struct {
	Offer  catalog.Offer
	Weight float64
	Base   float64 // period-average net value per LP
	AvgVol float64 // period-average traded volume
}

// SeriesPoint is one output date. Value is nil when no basket member had
// usable data that day; "no trading happened" is not "zero profit".
type SeriesPoint struct {
	Date     string   `json:"date"`
	Value    *float64 `json:"value"`
	Coverage float64  `json:"coverage"`
}

// Meta describes how a document was built.
type Meta struct {
	BasketSize  int    `json:"basketSize"`
	BasketLimit int    `json:"basketLimit"`
	Generated   string `json:"generated"`
}

// Document is the cached output of one index build.
type Document struct {
	CorpID   int32         `json:"corpId"`
	RegionID int32         `json:"regionId"`
	Days     int           `json:"days"`
	Series   []SeriesPoint `json:"series"`
	Meta     Meta          `json:"meta"`
}
