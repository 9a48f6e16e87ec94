package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		input     Input
		wantMode  Mode
		wantReady bool
	}{
		{
			name:      "all_healthy",
			input:     Input{CacheHealthy: true, GitHubHealthy: true},
			wantMode:  ModeHealthy,
			wantReady: true,
		},
		{
			name:      "github_down_degrades_but_stays_ready",
			input:     Input{CacheHealthy: true, GitHubHealthy: false},
			wantMode:  ModeDegraded,
			wantReady: true,
		},
		{
			name:      "cache_down_is_unhealthy",
			input:     Input{CacheHealthy: false, GitHubHealthy: true},
			wantMode:  ModeUnhealthy,
			wantReady: false,
		},
		{
			name:      "everything_down",
			input:     Input{},
			wantMode:  ModeUnhealthy,
			wantReady: false,
		},
	}

	evaluator := NewStatusEvaluator()
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status := evaluator.Evaluate(tc.input)
			if status.Mode != tc.wantMode {
				t.Fatalf("expected mode %s, got %s", tc.wantMode, status.Mode)
			}
			if status.Ready != tc.wantReady {
				t.Fatalf("expected ready=%v, got %v", tc.wantReady, status.Ready)
			}
			if status.Components["cache"] != tc.input.CacheHealthy {
				t.Fatalf("cache component mismatch: %+v", status.Components)
			}
			if status.Components["github"] != tc.input.GitHubHealthy {
				t.Fatalf("github component mismatch: %+v", status.Components)
			}
		})
	}
}

type stubCacheProber struct{ err error }

func (p stubCacheProber) Ping(context.Context) error { return p.err }

type stubUpstreamProber struct{ err error }

func (p stubUpstreamProber) Probe(context.Context) error { return p.err }

func TestMonitorProbeOnce(t *testing.T) {
	t.Parallel()

	monitor := NewMonitor(stubCacheProber{}, stubUpstreamProber{err: errors.New("github down")}, time.Minute, zap.NewNop())
	monitor.ProbeOnce(context.Background())

	status := monitor.CurrentStatus(context.Background())
	if status.Mode != ModeDegraded {
		t.Fatalf("expected degraded, got %s", status.Mode)
	}
	if !status.Ready {
		t.Fatal("cache up should keep readiness")
	}
}

func TestMonitorStartsUnhealthy(t *testing.T) {
	t.Parallel()

	monitor := NewMonitor(stubCacheProber{}, stubUpstreamProber{}, time.Minute, nil)
	status := monitor.CurrentStatus(context.Background())
	if status.Mode != ModeUnhealthy || status.Ready {
		t.Fatalf("unprobed monitor should report unhealthy, got %+v", status)
	}
}

type stubProvider struct{ status Status }

func (p stubProvider) CurrentStatus(context.Context) Status { return p.status }

func TestHandler(t *testing.T) {
	t.Parallel()

	ready := Status{Mode: ModeHealthy, Ready: true, Components: map[string]bool{"cache": true, "github": true}}
	notReady := Status{Mode: ModeUnhealthy, Ready: false, Components: map[string]bool{"cache": false, "github": true}}

	testCases := []struct {
		name     string
		path     string
		status   Status
		wantCode int
	}{
		{name: "livez_always_ok", path: "/livez", status: notReady, wantCode: http.StatusOK},
		{name: "readyz_ok_when_ready", path: "/readyz", status: ready, wantCode: http.StatusOK},
		{name: "readyz_503_when_not_ready", path: "/readyz", status: notReady, wantCode: http.StatusServiceUnavailable},
		{name: "healthz_reports_status", path: "/healthz", status: notReady, wantCode: http.StatusOK},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := NewHandler(stubProvider{status: tc.status})
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if recorder.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d", tc.wantCode, recorder.Code)
			}
			if tc.path == "/healthz" {
				var decoded Status
				if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if decoded.Mode != tc.status.Mode {
					t.Fatalf("expected mode %s, got %s", tc.status.Mode, decoded.Mode)
				}
			}
		})
	}
}
