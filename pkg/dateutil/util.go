package dateutil

import "time"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func NextDay(t time.Time) time.Time {
	return BeginningOfDay(t).AddDate(0, 0, 1)
}

// InHourWindow reports whether t falls inside the daily window
// [startHour, endHour) evaluated in t's location. A window whose end hour is
// not after its start hour wraps past midnight, e.g. 18 to 2.
func InHourWindow(t time.Time, startHour, endHour int) bool {
	hour := t.Hour()
	if startHour < endHour {
		return hour >= startHour && hour < endHour
	}

	return hour >= startHour || hour < endHour
}

// NextHourBoundary returns the earliest instant strictly after t whose hour
// equals one of the given boundaries, in t's location.
func NextHourBoundary(t time.Time, hours ...int) time.Time {
	day := BeginningOfDay(t)
	var next time.Time
	for d := 0; d <= 1; d++ {
		for _, h := range hours {
			candidate := day.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour)
			if !candidate.After(t) {
				continue
			}

			if next.IsZero() || candidate.Before(next) {
				next = candidate
			}
		}
	}

	return next
}
