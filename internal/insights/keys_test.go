package insights

import "testing"

func TestCacheKeyFormats(t *testing.T) {
	t.Parallel()

	if got, want := TotalCommitsKey("acme"), "orgTotalCommits_acme"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got, want := UserContributionsKey("acme", 2024), "orgUserContributions_acme:2024"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	got := WeeklyContributionsKey("acme", 2024, "2024-02-01", "2024-02-29")
	want := "orgUserWeeklyContributions_acme:2024:2024-02-01:2024-02-29"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCacheKeyDeterminismAndDistinctness(t *testing.T) {
	t.Parallel()

	base := WeeklyContributionsKey("acme", 2024, "2024-02-01", "2024-02-29")
	if again := WeeklyContributionsKey("acme", 2024, "2024-02-01", "2024-02-29"); again != base {
		t.Fatalf("identical inputs produced different keys: %q vs %q", base, again)
	}

	variants := map[string]string{
		"org":       WeeklyContributionsKey("other", 2024, "2024-02-01", "2024-02-29"),
		"year":      WeeklyContributionsKey("acme", 2023, "2024-02-01", "2024-02-29"),
		"startDate": WeeklyContributionsKey("acme", 2024, "2024-02-02", "2024-02-29"),
		"endDate":   WeeklyContributionsKey("acme", 2024, "2024-02-01", "2024-02-28"),
	}
	for param, key := range variants {
		if key == base {
			t.Fatalf("changing %s did not change the key %q", param, key)
		}
	}

	if TotalCommitsKey("acme") == TotalCommitsKey("other") {
		t.Fatal("distinct orgs must yield distinct commit keys")
	}
	if UserContributionsKey("acme", 2024) == UserContributionsKey("acme", 2023) {
		t.Fatal("distinct years must yield distinct contribution keys")
	}
}
