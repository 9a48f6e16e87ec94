// Package githubql executes raw GraphQL queries against the GitHub API and
// provides cursor-based pagination over paged result sets.
package githubql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orgstats/insights/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const defaultEndpoint = "https://api.github.com/graphql"

// HTTPDoer is implemented by http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GraphQLError is a single error entry from a GraphQL response.
type GraphQLError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ResponseError reports that the upstream returned GraphQL-level errors.
type ResponseError struct {
	Errors []GraphQLError
}

func (e *ResponseError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		messages = append(messages, entry.Message)
	}
	return "graphql response errors: " + strings.Join(messages, "; ")
}

// Client posts GraphQL queries to the GitHub API with bearer-token auth.
type Client struct {
	doer     HTTPDoer
	endpoint string
}

// NewClient creates a GraphQL client authenticated with a personal access
// token. The token is required; construction fails without one.
func NewClient(token, endpoint string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("github token is required")
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), source)
	httpClient.Timeout = timeout

	return &Client{doer: httpClient, endpoint: endpoint}, nil
}

// NewClientWithDoer creates a client over a custom HTTP doer. The caller is
// responsible for authentication on the injected transport.
func NewClientWithDoer(doer HTTPDoer, endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{doer: doer, endpoint: endpoint}
}

type requestBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type responseBody struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Execute runs a query with the given variables and decodes the response
// data into out. GraphQL-level errors and transport failures both surface
// as errors; no partial data is decoded.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, out any) error {
	if c == nil || c.doer == nil {
		return fmt.Errorf("graphql client is not initialized")
	}

	var span trace.Span
	if telemetry.ShouldTraceDependencies() {
		ctx, span = otel.Tracer("org-insights/internal/githubql").Start(
			ctx,
			"githubql.client.execute",
			trace.WithAttributes(
				attribute.Int("graphql.variable_count", len(variables)),
			),
		)
		defer span.End()
	}

	err := c.execute(ctx, query, variables, out)
	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "query completed")
		}
	}
	return err
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(requestBody{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("execute graphql request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read graphql response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql endpoint returned status %d", resp.StatusCode)
	}

	var decoded responseBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return &ResponseError{Errors: decoded.Errors}
	}
	if out != nil {
		if err := json.Unmarshal(decoded.Data, out); err != nil {
			return fmt.Errorf("decode graphql data: %w", err)
		}
	}
	return nil
}
