package githubql

import "time"

// OrgReposQuery lists organization repositories with their default-branch
// commit history counts and the organization creation time.
const OrgReposQuery = `query GetOrgReposWithCommits($organizationName: String!, $num: Int!, $cursor: String) {
  organization(login: $organizationName) {
    createdAt
    repositories(first: $num, after: $cursor) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        name
        defaultBranchRef {
          target {
            ... on Commit {
              history {
                totalCount
              }
            }
          }
        }
      }
    }
  }
}`

// MemberContributionsQuery lists organization members with their commit and
// pull-request contribution totals for a date window.
const MemberContributionsQuery = `query GetOrgMembers($organizationName: String!, $num: Int!, $after: String, $from: DateTime!, $to: DateTime!) {
  organization(login: $organizationName) {
    membersWithRole(first: $num, after: $after) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        login
        name
        avatarUrl
        contributionsCollection(from: $from, to: $to) {
          totalCommitContributions
          totalPullRequestContributions
        }
      }
    }
  }
}`

// MemberCalendarQuery lists organization members with their per-week
// contribution-day calendars for a date window.
const MemberCalendarQuery = `query GetOrgMembersWeekly($organizationName: String!, $num: Int!, $after: String, $from: DateTime!, $to: DateTime!) {
  organization(login: $organizationName) {
    membersWithRole(first: $num, after: $after) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        login
        contributionsCollection(from: $from, to: $to) {
          contributionCalendar {
            weeks {
              contributionDays {
                date
                contributionCount
              }
            }
          }
        }
      }
    }
  }
}`

// RepoNode is one repository entry from OrgReposQuery. DefaultBranchRef is
// null for repositories without a default branch.
type RepoNode struct {
	Name             string `json:"name"`
	DefaultBranchRef *struct {
		Target struct {
			History struct {
				TotalCount int `json:"totalCount"`
			} `json:"history"`
		} `json:"target"`
	} `json:"defaultBranchRef"`
}

// CommitCount returns the default-branch commit total, or 0 when the
// repository has no default branch.
func (n RepoNode) CommitCount() int {
	if n.DefaultBranchRef == nil {
		return 0
	}
	return n.DefaultBranchRef.Target.History.TotalCount
}

// OrgReposResult is the typed response for OrgReposQuery.
type OrgReposResult struct {
	Organization struct {
		CreatedAt    time.Time `json:"createdAt"`
		Repositories struct {
			PageInfo PageInfo   `json:"pageInfo"`
			Nodes    []RepoNode `json:"nodes"`
		} `json:"repositories"`
	} `json:"organization"`
}

// MemberNode is one member entry from MemberContributionsQuery.
type MemberNode struct {
	Login                   string `json:"login"`
	Name                    string `json:"name"`
	AvatarURL               string `json:"avatarUrl"`
	ContributionsCollection struct {
		TotalCommitContributions      int `json:"totalCommitContributions"`
		TotalPullRequestContributions int `json:"totalPullRequestContributions"`
	} `json:"contributionsCollection"`
}

// MemberContributionsResult is the typed response for MemberContributionsQuery.
type MemberContributionsResult struct {
	Organization struct {
		MembersWithRole struct {
			PageInfo PageInfo     `json:"pageInfo"`
			Nodes    []MemberNode `json:"nodes"`
		} `json:"membersWithRole"`
	} `json:"organization"`
}

// ContributionDay is a single day inside a contribution-calendar week.
type ContributionDay struct {
	Date              string `json:"date"`
	ContributionCount int    `json:"contributionCount"`
}

// CalendarWeek is one contribution-calendar week.
type CalendarWeek struct {
	ContributionDays []ContributionDay `json:"contributionDays"`
}

// CalendarMemberNode is one member entry from MemberCalendarQuery.
type CalendarMemberNode struct {
	Login                   string `json:"login"`
	ContributionsCollection struct {
		ContributionCalendar struct {
			Weeks []CalendarWeek `json:"weeks"`
		} `json:"contributionCalendar"`
	} `json:"contributionsCollection"`
}

// MemberCalendarResult is the typed response for MemberCalendarQuery.
type MemberCalendarResult struct {
	Organization struct {
		MembersWithRole struct {
			PageInfo PageInfo             `json:"pageInfo"`
			Nodes    []CalendarMemberNode `json:"nodes"`
		} `json:"membersWithRole"`
	} `json:"organization"`
}
