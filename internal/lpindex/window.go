package lpindex

import "time"

// Window returns the ordered list of days consecutive UTC calendar dates
// ending at the last fully completed day, i.e. excluding now's own
// (possibly partial) date.
func Window(days int, now time.Time) []string {
	end := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	dates := make([]string, 0, days)
	for i := days - 1; i >= 0; i-- {
		dates = append(dates, end.AddDate(0, 0, -i).Format("2006-01-02"))
	}
	return dates
}
