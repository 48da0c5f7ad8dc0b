package services

import "time"

// Calendar windows are half-open [start, end) in the local zone of the
// reference time. "Previous" always means the full calendar period
// immediately before the one containing now.

func previousMonthRange(now time.Time) (time.Time, time.Time) {
	year, month, _ := now.Date()
	end := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
	return end.AddDate(0, -1, 0), end
}

func previousYearRange(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return end.AddDate(-1, 0, 0), end
}

// previousWeekRange returns the Monday-to-Monday week before the one
// containing now.
func previousWeekRange(now time.Time) (time.Time, time.Time) {
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	// Days since Monday, with Sunday counting as day six.
	offset := (int(now.Weekday()) + 6) % 7
	weekStart := midnight.AddDate(0, 0, -offset)

	return weekStart.AddDate(0, 0, -7), weekStart
}
