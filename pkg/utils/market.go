package utils

import "time"

// US equity market regular session, Eastern time.
const (
	marketOpenHour   = 9
	marketOpenMinute = 30
	marketCloseHour  = 16
)

// easternTime converts t to US Eastern, falling back to a fixed -5 offset if
// the zone database is unavailable.
func easternTime(t time.Time) time.Time {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return t.UTC().Add(-5 * time.Hour)
	}
	return t.In(loc)
}

// IsMarketOpen reports whether the US equity regular session is open at t.
// Exchange holidays are not modeled; the gateway rejects requests on
// holidays anyway.
func IsMarketOpen(t time.Time) bool {
	et := easternTime(t)

	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := et.Hour()*60 + et.Minute()
	open := marketOpenHour*60 + marketOpenMinute
	close := marketCloseHour * 60
	return minutes >= open && minutes < close
}

// NextMarketOpen returns the next regular session open after t.
func NextMarketOpen(t time.Time) time.Time {
	et := easternTime(t)

	open := time.Date(et.Year(), et.Month(), et.Day(), marketOpenHour, marketOpenMinute, 0, 0, et.Location())
	if !et.Before(open) {
		open = open.AddDate(0, 0, 1)
	}
	for open.Weekday() == time.Saturday || open.Weekday() == time.Sunday {
		open = open.AddDate(0, 0, 1)
	}
	return open
}
