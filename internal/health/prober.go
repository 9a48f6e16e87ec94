package health

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
)

// GitHubProber checks GitHub API reachability through the rate-limit
// endpoint, which does not consume request quota.
type GitHubProber struct {
	client *github.Client
}

// NewGitHubProber creates a prober authenticated with a personal access token.
func NewGitHubProber(token, baseURL string, timeout time.Duration) (*GitHubProber, error) {
	httpClient := &http.Client{Timeout: timeout}
	client := github.NewClient(httpClient)
	if strings.TrimSpace(token) != "" {
		client = client.WithAuthToken(token)
	}

	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github api base url: %w", err)
		}
		if !strings.HasSuffix(parsed.Path, "/") {
			parsed.Path += "/"
		}
		client.BaseURL = parsed
	}

	return &GitHubProber{client: client}, nil
}

// Probe queries the rate-limit endpoint to verify reachability and auth.
func (p *GitHubProber) Probe(ctx context.Context) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("github prober is not initialized")
	}
	if _, _, err := p.client.RateLimit.Get(ctx); err != nil {
		return fmt.Errorf("github rate limit probe: %w", err)
	}
	return nil
}
