package insights

import "fmt"

const (
	orgCommitsPrefix           = "orgTotalCommits_"
	orgUserContributionsPrefix = "orgUserContributions_"
	orgUserWeeklyPrefix        = "orgUserWeeklyContributions_"
)

// TotalCommitsKey derives the cache key for an organization's per-repository
// commit totals.
func TotalCommitsKey(org string) string {
	return orgCommitsPrefix + org
}

// UserContributionsKey derives the cache key for an organization's per-user
// contribution totals in a year.
func UserContributionsKey(org string, year int) string {
	return fmt.Sprintf("%s%s:%d", orgUserContributionsPrefix, org, year)
}

// WeeklyContributionsKey derives the cache key for an organization's weekly
// contribution series. The key includes the requested date window even
// though the cached payload spans the whole year, so distinct windows within
// one year fragment into separate entries.
func WeeklyContributionsKey(org string, year int, startDate, endDate string) string {
	return fmt.Sprintf("%s%s:%d:%s:%s", orgUserWeeklyPrefix, org, year, startDate, endDate)
}
