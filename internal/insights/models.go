// Package insights aggregates organization activity metrics fetched from
// the GitHub GraphQL API behind a fixed-TTL cache-aside layer.
package insights

// RepoCommits is one repository's default-branch commit total, paired with
// the organization's year range from founding to the current year.
type RepoCommits struct {
	RepoName   string `json:"repoName"`
	TotalYears []int  `json:"totalYears"`
	Commits    int    `json:"commits"`
}

// ContributionTotals is a user's contribution counts over a year window.
// Total is always the sum of the two component counts.
type ContributionTotals struct {
	TotalCommitContributions      int `json:"totalCommitContributions"`
	TotalPullRequestContributions int `json:"totalPullRequestContributions"`
	Total                         int `json:"total"`
}

// UserContributions is one organization member's contribution summary.
type UserContributions struct {
	UserName      string             `json:"userName"`
	FullName      string             `json:"fullName"`
	AvatarURL     string             `json:"avatarUrl"`
	Contributions ContributionTotals `json:"contributions"`
}

// WeeklyContribution is one calendar week's summed contribution count,
// identified by the week's first day.
type WeeklyContribution struct {
	StartDate         string `json:"startDate"`
	ContributionCount int    `json:"contributionCount"`
}

// UserWeeklySeries is the cached full-year weekly series for one member,
// ordered chronologically ascending.
type UserWeeklySeries struct {
	UserName string               `json:"userName"`
	Weeks    []WeeklyContribution `json:"weeks"`
}

// UserWeeklyContributions is the caller-facing weekly series, filtered to
// the requested date window.
type UserWeeklyContributions struct {
	UserName            string               `json:"userName"`
	WeeklyContributions []WeeklyContribution `json:"weeklyContributions"`
}
