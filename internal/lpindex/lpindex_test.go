package lpindex

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"evegem/internal/catalog"
)

func fp(v float64) *float64 { return &v }

// table builds a HistoryTable with the same priced record on every date.
func flatTable(dates []string, avg, vol float64) HistoryTable {
	t := make(HistoryTable, len(dates))
	for _, d := range dates {
		a, v := avg, vol
		t[d] = DayRecord{Average: &a, Volume: &v}
	}
	return t
}

// --- Window ---

func TestWindow_EndsAtLastCompletedDay(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)
	dates := Window(3, now)
	want := []string{"2024-06-12", "2024-06-13", "2024-06-14"}
	if len(dates) != 3 {
		t.Fatalf("len = %d, want 3", len(dates))
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, dates[i], want[i])
		}
	}
}

func TestWindow_LengthAndValidDates(t *testing.T) {
	for _, days := range []int{3, 30, 90} {
		dates := Window(days, time.Now())
		if len(dates) != days {
			t.Errorf("Window(%d) len = %d", days, len(dates))
		}
		for _, d := range dates {
			if _, err := time.Parse("2006-01-02", d); err != nil {
				t.Errorf("invalid date %q: %v", d, err)
			}
		}
	}
}

// --- SelectBasket ---

func TestSelectBasket_NeverSelectsIneligibleOffers(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	offers := make([]catalog.Offer, 0, 200)
	for i := 0; i < 200; i++ {
		o := catalog.Offer{
			ItemID:   int32(i),
			LpCost:   float64(rng.Intn(5)-2) * 100, // some <= 0
			Qty:      int64(rng.Intn(3)),           // some 0
			IskPerLp: fp(rng.Float64() * 2000),
		}
		o.VolumePerDay14 = fp(rng.Float64() * 50)
		o.VolumePerDay30 = fp(rng.Float64() * 50)
		offers = append(offers, o)
	}

	for _, days := range []int{7, 30} {
		for _, sel := range SelectBasket(offers, days, 40) {
			if sel.LpCost <= 0 || sel.Qty <= 0 {
				t.Fatalf("selected ineligible offer %+v", sel)
			}
		}
	}
}

func TestSelectBasket_SizeBounds(t *testing.T) {
	offers := []catalog.Offer{
		{ItemID: 1, LpCost: 100, Qty: 1, IskPerLp: fp(1000), VolumePerDay30: fp(10)},
		{ItemID: 2, LpCost: 100, Qty: 1, IskPerLp: fp(2000), VolumePerDay30: fp(10)},
		{ItemID: 3, LpCost: 100, Qty: 1, IskPerLp: fp(0), VolumePerDay30: fp(10)}, // score 0
	}
	got := SelectBasket(offers, 30, 1)
	if len(got) != 1 || got[0].ItemID != 2 {
		t.Errorf("basket = %+v, want top-scored item 2 only", got)
	}
	if got := SelectBasket(offers, 30, 40); len(got) != 2 {
		t.Errorf("basket size = %d, want 2 eligible", len(got))
	}
}

func TestSelectBasket_VolumeFieldByWindow(t *testing.T) {
	// 14d volume high, 30d volume zero: the offer scores only in short windows.
	o := catalog.Offer{ItemID: 1, LpCost: 100, Qty: 1, IskPerLp: fp(100), VolumePerDay14: fp(20), VolumePerDay30: fp(0)}
	if got := SelectBasket([]catalog.Offer{o}, 14, 10); len(got) != 1 {
		t.Error("days=14 should use the 14-day figure")
	}
	if got := SelectBasket([]catalog.Offer{o}, 15, 10); len(got) != 0 {
		t.Error("days=15 should use the 30-day figure (score 0)")
	}
}

func TestSelectBasket_FallbackToGenericVolume(t *testing.T) {
	o := catalog.Offer{ItemID: 1, LpCost: 100, Qty: 1, IskPerLp: fp(100), VolumePerDay: fp(5)}
	if got := SelectBasket([]catalog.Offer{o}, 30, 10); len(got) != 1 {
		t.Error("generic volumePerDay should back up the missing rolling figures")
	}
}

// --- DayValue ---

func TestDayValue_Exact(t *testing.T) {
	o := catalog.Offer{
		ItemID: 200, LpCost: 100, IskCost: 10000, Qty: 2,
		RequiredItems: []catalog.RequiredItem{{TypeID: 300, Qty: 3}},
	}
	h := Histories{
		200: {"2024-01-01": DayRecord{Average: fp(50000), Volume: fp(10)}},
		300: {"2024-01-01": DayRecord{Average: fp(1000)}},
	}
	// revenue = 50000*2 = 100000; reqCost = 1000*3 = 3000
	// net = 100000 - 10000 - 3000 = 87000; value = 870
	v, vol, ok := DayValue(o, "2024-01-01", h)
	if !ok {
		t.Fatal("expected usable value")
	}
	if v != 870 {
		t.Errorf("value = %v, want 870", v)
	}
	if vol != 10 {
		t.Errorf("volume = %v, want 10", vol)
	}
}

func TestDayValue_RequiredItemsAllOrNothing(t *testing.T) {
	o := catalog.Offer{
		ItemID: 200, LpCost: 100, Qty: 1,
		RequiredItems: []catalog.RequiredItem{{TypeID: 1, Qty: 1}, {TypeID: 2, Qty: 1}},
	}
	h := Histories{
		200: {"2024-01-01": DayRecord{Average: fp(50000), Volume: fp(10)}},
		1:   {"2024-01-01": DayRecord{Average: fp(100)}},
		// item 2 has no record on 2024-01-01 at all
		2: {"2024-01-02": DayRecord{Average: fp(100)}},
	}
	if _, _, ok := DayValue(o, "2024-01-01", h); ok {
		t.Error("offer must be skipped when any required item lacks a price that day")
	}
}

func TestDayValue_SkipsWithoutOwnPrice(t *testing.T) {
	o := catalog.Offer{ItemID: 200, LpCost: 100, Qty: 1}
	h := Histories{200: {"2024-01-01": DayRecord{Volume: fp(5)}}} // volume but no average
	if _, _, ok := DayValue(o, "2024-01-01", h); ok {
		t.Error("a day without an average price is unusable")
	}
}

func TestDayValue_NonFiniteGuard(t *testing.T) {
	o := catalog.Offer{ItemID: 200, LpCost: 100, Qty: 1}
	h := Histories{200: {"2024-01-01": DayRecord{Average: fp(math.Inf(1))}}}
	if _, _, ok := DayValue(o, "2024-01-01", h); ok {
		t.Error("non-finite value must be skipped")
	}
}

func TestDayValue_MissingVolumeCountsAsZero(t *testing.T) {
	o := catalog.Offer{ItemID: 200, LpCost: 100, Qty: 1}
	h := Histories{200: {"2024-01-01": DayRecord{Average: fp(1000)}}}
	v, vol, ok := DayValue(o, "2024-01-01", h)
	if !ok || v != 10 {
		t.Fatalf("value = %v ok=%v, want 10", v, ok)
	}
	if vol != 0 {
		t.Errorf("volume = %v, want 0 for unrecorded volume", vol)
	}
}

// --- ComputeWeights ---

func TestComputeWeights_EndToEndScenario(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	o := catalog.Offer{ItemID: 200, LpCost: 100, IskCost: 0, Qty: 1}
	h := Histories{200: flatTable(dates, 50000, 10)}

	basket := ComputeWeights([]catalog.Offer{o}, dates, h, 25)
	if len(basket) != 1 {
		t.Fatalf("basket size = %d, want 1", len(basket))
	}
	b := basket[0]
	if b.Base != 500 {
		t.Errorf("base = %v, want 500", b.Base)
	}
	if b.AvgVol != 10 {
		t.Errorf("avgVol = %v, want 10", b.AvgVol)
	}
	if b.Weight != 5000 {
		t.Errorf("weight = %v, want 5000", b.Weight)
	}

	series := BuildSeries(basket, dates, h)
	if len(series) != 3 {
		t.Fatalf("series len = %d, want 3", len(series))
	}
	for _, p := range series {
		if p.Value == nil || *p.Value != 500 {
			t.Errorf("series[%s].value = %v, want 500", p.Date, p.Value)
		}
		if p.Coverage != 1 {
			t.Errorf("series[%s].coverage = %v, want 1", p.Date, p.Coverage)
		}
	}
}

func TestComputeWeights_NoHistoryOffersDropped(t *testing.T) {
	dates := []string{"2024-01-01"}
	offers := []catalog.Offer{
		{ItemID: 200, LpCost: 100, Qty: 1},
		{ItemID: 201, LpCost: 100, Qty: 1}, // no history at all
	}
	h := Histories{200: flatTable(dates, 1000, 5)}

	basket := ComputeWeights(offers, dates, h, 25)
	if len(basket) != 1 || basket[0].Offer.ItemID != 200 {
		t.Errorf("basket = %+v, want only item 200", basket)
	}
}

func TestComputeWeights_ZeroWeightDropped(t *testing.T) {
	dates := []string{"2024-01-01"}
	// Priced day with zero volume: avgVol = 0 (defined), weight = 0 -> dropped.
	o := catalog.Offer{ItemID: 200, LpCost: 100, Qty: 1}
	h := Histories{200: flatTable(dates, 1000, 0)}

	if basket := ComputeWeights([]catalog.Offer{o}, dates, h, 25); len(basket) != 0 {
		t.Errorf("basket = %+v, want empty for zero weight", basket)
	}
}

func TestComputeWeights_NegativeBaseClampedToZeroWeight(t *testing.T) {
	dates := []string{"2024-01-01"}
	// Selling below the ISK cost: net value negative, weight clamps to 0.
	o := catalog.Offer{ItemID: 200, LpCost: 100, IskCost: 1e9, Qty: 1}
	h := Histories{200: flatTable(dates, 1000, 50)}

	if basket := ComputeWeights([]catalog.Offer{o}, dates, h, 25); len(basket) != 0 {
		t.Errorf("basket = %+v, want empty for negative base", basket)
	}
}

func TestComputeWeights_StableOrderOnTies(t *testing.T) {
	dates := []string{"2024-01-01"}
	offers := []catalog.Offer{
		{ItemID: 1, LpCost: 100, Qty: 1},
		{ItemID: 2, LpCost: 100, Qty: 1},
	}
	h := Histories{
		1: flatTable(dates, 1000, 5),
		2: flatTable(dates, 1000, 5),
	}
	basket := ComputeWeights(offers, dates, h, 25)
	if len(basket) != 2 || basket[0].Offer.ItemID != 1 || basket[1].Offer.ItemID != 2 {
		t.Errorf("tie-break must keep selection order, got %+v", basket)
	}
}

// --- BuildSeries ---

func TestBuildSeries_PartialCoverage(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-02"}
	offers := []catalog.Offer{
		{ItemID: 1, LpCost: 100, Qty: 1},
		{ItemID: 2, LpCost: 100, Qty: 1},
	}
	// Item 1 trades both days (weight 10*30 = 300); item 2 only the first
	// day (weight 20*10 = 200).
	h := Histories{
		1: flatTable(dates, 1000, 30),
		2: {dates[0]: DayRecord{Average: fp(2000), Volume: fp(10)}},
	}
	basket := ComputeWeights(offers, dates, h, 25)
	if len(basket) != 2 {
		t.Fatalf("basket = %+v, want 2 entries", basket)
	}

	series := BuildSeries(basket, dates, h)
	// Day 1: both contribute. value = (10*300 + 20*200)/(300+200) = 7000/500 = 14.
	if series[0].Value == nil || *series[0].Value != 14 {
		t.Errorf("day1 value = %v, want 14", series[0].Value)
	}
	if series[0].Coverage != 1 {
		t.Errorf("day1 coverage = %v, want 1", series[0].Coverage)
	}
	// Day 2: only item 1 contributes. value = 10, coverage = 300/500 = 0.6.
	if series[1].Value == nil || *series[1].Value != 10 {
		t.Errorf("day2 value = %v, want 10", series[1].Value)
	}
	if series[1].Coverage != 0.6 {
		t.Errorf("day2 coverage = %v, want 0.6", series[1].Coverage)
	}
}

func TestBuildSeries_CoverageZeroIffValueNull(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	o := catalog.Offer{ItemID: 1, LpCost: 100, Qty: 1}
	h := Histories{1: HistoryTable{
		"2024-01-01": DayRecord{Average: fp(1000), Volume: fp(5)},
		// nothing on 01-02 and 01-03
	}}
	basket := ComputeWeights([]catalog.Offer{o}, dates, h, 25)
	series := BuildSeries(basket, dates, h)

	for _, p := range series {
		if p.Coverage < 0 || p.Coverage > 1 {
			t.Errorf("%s coverage = %v out of [0,1]", p.Date, p.Coverage)
		}
		if (p.Coverage == 0) != (p.Value == nil) {
			t.Errorf("%s: coverage==0 must hold exactly when value is null (cov=%v value=%v)",
				p.Date, p.Coverage, p.Value)
		}
	}
	if series[0].Value == nil || series[1].Value != nil || series[2].Value != nil {
		t.Errorf("series = %+v, want data only on the first date", series)
	}
}

func TestBuildSeries_EmptyBasketIsAllNulls(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-02"}
	series := BuildSeries(nil, dates, Histories{})
	if len(series) != 2 {
		t.Fatalf("series len = %d, want window length", len(series))
	}
	for _, p := range series {
		if p.Value != nil || p.Coverage != 0 {
			t.Errorf("%s: want null value and zero coverage, got %+v", p.Date, p)
		}
	}
}
