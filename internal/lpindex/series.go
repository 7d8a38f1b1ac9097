package lpindex

// BuildSeries produces one point per window date from the fixed, weighted
// basket. Each date's value is the weight-averaged DayValue over the basket
// members that had usable data; coverage is the fraction of total basket
// weight those members represent. A date where no member reported data gets
// a nil value and zero coverage.
func BuildSeries(basket []BasketEntry, dates []string, h Histories) []SeriesPoint {
	totalWeight := 0.0
	for _, b := range basket {
		totalWeight += b.Weight
	}
	if totalWeight == 0 {
		// Empty basket: every date is an explicit null with zero coverage.
		totalWeight = 1
	}

	series := make([]SeriesPoint, 0, len(dates))
	for _, date := range dates {
		var weightedSum, weightUsed float64
		for _, b := range basket {
			v, _, ok := DayValue(b.Offer, date, h)
			if !ok {
				continue
			}
			weightedSum += v * b.Weight
			weightUsed += b.Weight
		}

		point := SeriesPoint{Date: date, Coverage: weightUsed / totalWeight}
		if weightUsed > 0 {
			value := weightedSum / weightUsed
			point.Value = &value
		}
		series = append(series, point)
	}
	return series
}
