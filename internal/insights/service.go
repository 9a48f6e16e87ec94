package insights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/orgstats/insights/internal/cache"
	"github.com/orgstats/insights/internal/githubql"
	"go.uber.org/zap"
)

// Smaller batch size for queries carrying a contributionsCollection; large
// batches risk exceeding GitHub's per-query resource limits.
const contributionsBatchSize = 10

// Every aggregate kind shares one fixed time-to-live. The cache is an
// opportunistic memoization layer; staleness up to the TTL is accepted.
const cacheTTL = time.Hour

// Per-aggregate errors returned to callers. Original upstream detail is
// logged, never propagated.
var (
	ErrFetchTotalCommits        = errors.New("failed to fetch organization total commits")
	ErrFetchUserContributions   = errors.New("failed to fetch organization user contributions")
	ErrFetchWeeklyContributions = errors.New("failed to fetch organization weekly contributions")
)

// Executor is the GraphQL capability consumed by the service.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]any, out any) error
}

// Config carries the organization scope and result caps for a Service.
type Config struct {
	Organization string
	RepoNumber   int
	UserNumber   int
}

// Service aggregates organization activity from the GitHub GraphQL API,
// memoizing full results in the cache store. It is safe for concurrent use;
// concurrent misses on one key may repopulate it redundantly (last writer
// wins, both derive from the same upstream data).
type Service struct {
	org        string
	repoNumber int
	userNumber int

	gql     Executor
	cache   cache.Store
	logger  *zap.Logger
	metrics *Metrics

	// now is injected for testability.
	now func() time.Time
}

// NewService creates an organization-scoped insights service.
func NewService(cfg Config, gql Executor, store cache.Store, logger *zap.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	repoNumber := cfg.RepoNumber
	if repoNumber <= 0 {
		repoNumber = 100
	}
	userNumber := cfg.UserNumber
	if userNumber <= 0 {
		userNumber = 50
	}

	return &Service{
		org:        cfg.Organization,
		repoNumber: repoNumber,
		userNumber: userNumber,
		gql:        gql,
		cache:      store,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Organization returns the organization this service is scoped to.
func (s *Service) Organization() string {
	return s.org
}

// OrgTotalCommits returns per-repository default-branch commit totals, each
// entry carrying the inclusive year range from organization founding to the
// current year.
func (s *Service) OrgTotalCommits(ctx context.Context) ([]RepoCommits, error) {
	commits, err := s.orgTotalCommits(ctx)
	if err != nil {
		s.metrics.upstreamError(aggregateTotalCommits)
		s.logger.Error("fetch organization total commits", zap.String("org", s.org), zap.Error(err))
		return nil, ErrFetchTotalCommits
	}
	return commits, nil
}

func (s *Service) orgTotalCommits(ctx context.Context) ([]RepoCommits, error) {
	key := TotalCommitsKey(s.org)

	var cached []RepoCommits
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if hit {
		s.metrics.cacheHit(aggregateTotalCommits)
		s.logger.Debug("returning cached organization total commits", zap.String("org", s.org))
		return cached, nil
	}
	s.metrics.cacheMiss(aggregateTotalCommits)

	s.metrics.upstreamCall(aggregateTotalCommits)
	var result githubql.OrgReposResult
	variables := map[string]any{
		"organizationName": s.org,
		"num":              s.repoNumber,
		"cursor":           nil,
	}
	if err := s.gql.Execute(ctx, githubql.OrgReposQuery, variables, &result); err != nil {
		return nil, fmt.Errorf("query organization repositories: %w", err)
	}

	totalYears := YearsSince(result.Organization.CreatedAt, s.now())
	commits := make([]RepoCommits, 0, len(result.Organization.Repositories.Nodes))
	for _, repo := range result.Organization.Repositories.Nodes {
		commits = append(commits, RepoCommits{
			RepoName:   repo.Name,
			TotalYears: totalYears,
			Commits:    repo.CommitCount(),
		})
	}

	if err := s.cache.Set(ctx, key, commits, cacheTTL); err != nil {
		return nil, fmt.Errorf("cache set: %w", err)
	}
	return commits, nil
}

// OrgUserContributions returns per-member commit and pull-request
// contribution totals for the target year, sorted descending by total.
// A year of 0 targets the current calendar year.
func (s *Service) OrgUserContributions(ctx context.Context, year int) ([]UserContributions, error) {
	contributions, err := s.orgUserContributions(ctx, year)
	if err != nil {
		s.metrics.upstreamError(aggregateUserContributions)
		s.logger.Error("fetch organization user contributions",
			zap.String("org", s.org), zap.Int("year", year), zap.Error(err))
		return nil, ErrFetchUserContributions
	}
	return contributions, nil
}

func (s *Service) orgUserContributions(ctx context.Context, year int) ([]UserContributions, error) {
	targetYear := s.targetYear(year)
	from, to := YearBounds(targetYear)
	key := UserContributionsKey(s.org, targetYear)

	var cached []UserContributions
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if hit {
		s.metrics.cacheHit(aggregateUserContributions)
		s.logger.Debug("returning cached organization user contributions",
			zap.String("org", s.org), zap.Int("year", targetYear))
		return cached, nil
	}
	s.metrics.cacheMiss(aggregateUserContributions)

	members, err := githubql.CollectAll(ctx, s.userNumber,
		func(ctx context.Context, after *string) (githubql.Page[githubql.MemberNode], error) {
			s.metrics.upstreamCall(aggregateUserContributions)
			var result githubql.MemberContributionsResult
			variables := s.memberPageVariables(after, from, to)
			if err := s.gql.Execute(ctx, githubql.MemberContributionsQuery, variables, &result); err != nil {
				return githubql.Page[githubql.MemberNode]{}, fmt.Errorf("query organization members: %w", err)
			}
			page := result.Organization.MembersWithRole
			return githubql.Page[githubql.MemberNode]{Nodes: page.Nodes, PageInfo: page.PageInfo}, nil
		})
	if err != nil {
		return nil, err
	}

	contributions := make([]UserContributions, 0, len(members))
	for _, member := range members {
		collection := member.ContributionsCollection
		contributions = append(contributions, UserContributions{
			UserName:  member.Login,
			FullName:  member.Name,
			AvatarURL: member.AvatarURL,
			Contributions: ContributionTotals{
				TotalCommitContributions:      collection.TotalCommitContributions,
				TotalPullRequestContributions: collection.TotalPullRequestContributions,
				Total:                         collection.TotalCommitContributions + collection.TotalPullRequestContributions,
			},
		})
	}
	// Ties keep upstream order.
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].Contributions.Total > contributions[j].Contributions.Total
	})

	if err := s.cache.Set(ctx, key, contributions, cacheTTL); err != nil {
		return nil, fmt.Errorf("cache set: %w", err)
	}
	return contributions, nil
}

// OrgUserWeeklyContributions returns per-member weekly contribution counts
// filtered to [startDate, endDate]. A year of 0 targets the current year;
// an empty startDate defaults to January 1 of the target year; an empty
// endDate defaults to seven days before today. The upstream fetch always
// spans the full target year and the full-year series is what gets cached.
func (s *Service) OrgUserWeeklyContributions(ctx context.Context, year int, startDate, endDate string) ([]UserWeeklyContributions, error) {
	weekly, err := s.orgUserWeeklyContributions(ctx, year, startDate, endDate)
	if err != nil {
		s.metrics.upstreamError(aggregateWeeklyContributions)
		s.logger.Error("fetch organization weekly contributions",
			zap.String("org", s.org), zap.Int("year", year),
			zap.String("start_date", startDate), zap.String("end_date", endDate), zap.Error(err))
		return nil, ErrFetchWeeklyContributions
	}
	return weekly, nil
}

func (s *Service) orgUserWeeklyContributions(ctx context.Context, year int, startDate, endDate string) ([]UserWeeklyContributions, error) {
	targetYear := s.targetYear(year)
	if startDate == "" {
		startDate = fmt.Sprintf("%d-01-01", targetYear)
	}
	if endDate == "" {
		endDate = DefaultWeeklyEnd(s.now())
	}
	s.logger.Debug("weekly contributions window",
		zap.Int("year", targetYear), zap.String("start_date", startDate), zap.String("end_date", endDate))

	// The fetch spans the whole year regardless of the requested window, so
	// one upstream round covers any later sub-range of the same key.
	from, to := YearBounds(targetYear)
	key := WeeklyContributionsKey(s.org, targetYear, startDate, endDate)

	var fullYear []UserWeeklySeries
	hit, err := s.cache.Get(ctx, key, &fullYear)
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if hit {
		s.metrics.cacheHit(aggregateWeeklyContributions)
		s.logger.Debug("returning cached weekly contributions",
			zap.String("org", s.org), zap.Int("year", targetYear))
	} else {
		s.metrics.cacheMiss(aggregateWeeklyContributions)
		fullYear, err = s.fetchFullYearWeekly(ctx, from, to)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, fullYear, cacheTTL); err != nil {
			return nil, fmt.Errorf("cache set: %w", err)
		}
	}

	return filterWeekly(fullYear, startDate, endDate), nil
}

func (s *Service) fetchFullYearWeekly(ctx context.Context, from, to time.Time) ([]UserWeeklySeries, error) {
	members, err := githubql.CollectAll(ctx, s.userNumber,
		func(ctx context.Context, after *string) (githubql.Page[githubql.CalendarMemberNode], error) {
			s.metrics.upstreamCall(aggregateWeeklyContributions)
			var result githubql.MemberCalendarResult
			variables := s.memberPageVariables(after, from, to)
			if err := s.gql.Execute(ctx, githubql.MemberCalendarQuery, variables, &result); err != nil {
				return githubql.Page[githubql.CalendarMemberNode]{}, fmt.Errorf("query member calendars: %w", err)
			}
			page := result.Organization.MembersWithRole
			return githubql.Page[githubql.CalendarMemberNode]{Nodes: page.Nodes, PageInfo: page.PageInfo}, nil
		})
	if err != nil {
		return nil, err
	}

	fullYear := make([]UserWeeklySeries, 0, len(members))
	for _, member := range members {
		calendarWeeks := member.ContributionsCollection.ContributionCalendar.Weeks
		weeks := make([]WeeklyContribution, 0, len(calendarWeeks))
		for _, week := range calendarWeeks {
			total := 0
			for _, day := range week.ContributionDays {
				total += day.ContributionCount
			}
			if len(week.ContributionDays) == 0 || week.ContributionDays[0].Date == "" {
				// A week without a dated first day cannot be addressed by
				// the date-window filter; drop it.
				continue
			}
			weeks = append(weeks, WeeklyContribution{
				StartDate:         week.ContributionDays[0].Date,
				ContributionCount: total,
			})
		}
		fullYear = append(fullYear, UserWeeklySeries{UserName: member.Login, Weeks: weeks})
	}
	return fullYear, nil
}

// filterWeekly slices each member's series to weeks whose start date falls
// in the inclusive [startDate, endDate] range. Lexicographic comparison of
// YYYY-MM-DD strings matches chronological order.
func filterWeekly(fullYear []UserWeeklySeries, startDate, endDate string) []UserWeeklyContributions {
	filtered := make([]UserWeeklyContributions, 0, len(fullYear))
	for _, user := range fullYear {
		weeks := make([]WeeklyContribution, 0, len(user.Weeks))
		for _, week := range user.Weeks {
			if week.StartDate >= startDate && week.StartDate <= endDate {
				weeks = append(weeks, week)
			}
		}
		filtered = append(filtered, UserWeeklyContributions{
			UserName:            user.UserName,
			WeeklyContributions: weeks,
		})
	}
	return filtered
}

func (s *Service) memberPageVariables(after *string, from, to time.Time) map[string]any {
	variables := map[string]any{
		"organizationName": s.org,
		"num":              contributionsBatchSize,
		"after":            nil,
		"from":             from.Format(time.RFC3339),
		"to":               to.Format(time.RFC3339),
	}
	if after != nil {
		variables["after"] = *after
	}
	return variables
}

func (s *Service) targetYear(year int) int {
	if year > 0 {
		return year
	}
	return s.now().UTC().Year()
}
