package data

import "time"

// dateRange is an inclusive span of trading days to fetch in one
// provider call.
type dateRange struct {
	from time.Time
	to   time.Time
}

// civilDate truncates t to its UTC calendar day.
func civilDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// tradingDays enumerates the weekdays in [from, to]. Exchange holidays are
// not modeled: a holiday shows up as a permanently-missing day and gets
// re-requested along with whatever real gap triggered the fetch, which the
// upsert absorbs.
func tradingDays(from, to time.Time) []time.Time {
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !isWeekend(d) {
			days = append(days, d)
		}
	}
	return days
}

// missingRanges coalesces the expected days absent from storage into
// contiguous fetch ranges. "Today" is always treated as missing, cached or
// not: it sits on the mutable side of the freshness boundary. Days that
// are adjacent in the trading-day sequence (so Friday→Monday counts)
// collapse into a single range.
func missingRanges(expected []time.Time, stored map[time.Time]struct{}, today time.Time) []dateRange {
	var ranges []dateRange
	open := false
	var cur dateRange

	for _, d := range expected {
		_, cached := stored[d]
		missing := !cached || d.Equal(today)
		switch {
		case missing && !open:
			cur = dateRange{from: d, to: d}
			open = true
		case missing:
			cur.to = d
		case open:
			ranges = append(ranges, cur)
			open = false
		}
	}
	if open {
		ranges = append(ranges, cur)
	}
	return ranges
}
