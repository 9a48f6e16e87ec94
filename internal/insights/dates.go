package insights

import "time"

const dateLayout = "2006-01-02"

// YearBounds returns the inclusive UTC span of a calendar year, from
// January 1 00:00:00 through December 31 23:59:59.
func YearBounds(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	return from, to
}

// YearsSince returns the inclusive sequence of calendar years from founded
// through now, both in UTC. Empty when founded is after now.
func YearsSince(founded, now time.Time) []int {
	first := founded.UTC().Year()
	last := now.UTC().Year()

	years := make([]int, 0, max(last-first+1, 0))
	for year := first; year <= last; year++ {
		years = append(years, year)
	}
	return years
}

// DefaultWeeklyEnd returns the start of the most recent complete week,
// seven days before now, as a YYYY-MM-DD string. The default is
// year-independent: for historical target years it falls outside the year.
func DefaultWeeklyEnd(now time.Time) string {
	return now.UTC().AddDate(0, 0, -7).Format(dateLayout)
}
