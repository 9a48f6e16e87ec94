// Package health evaluates and reports dependency health for the service.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Mode indicates high-level health mode.
type Mode string

const (
	// ModeHealthy indicates all dependencies are healthy.
	ModeHealthy Mode = "healthy"
	// ModeDegraded indicates the app serves but a non-readiness dependency is degraded.
	ModeDegraded Mode = "degraded"
	// ModeUnhealthy indicates a required dependency is unhealthy.
	ModeUnhealthy Mode = "unhealthy"
)

// Input represents dependency states used for health evaluation.
type Input struct {
	CacheHealthy  bool
	GitHubHealthy bool
}

// Status represents evaluated application health.
type Status struct {
	Mode       Mode            `json:"mode"`
	Ready      bool            `json:"ready"`
	Components map[string]bool `json:"components"`
}

// Provider supplies current health status.
type Provider interface {
	CurrentStatus(ctx context.Context) Status
}

// StatusEvaluator evaluates readiness from dependency state.
type StatusEvaluator struct{}

// NewStatusEvaluator creates a health evaluator.
func NewStatusEvaluator() *StatusEvaluator {
	return &StatusEvaluator{}
}

// Evaluate evaluates readiness and mode from dependency state. The cache is
// required for readiness; GitHub reachability only degrades, because cached
// aggregates remain servable while upstream is down.
func (e *StatusEvaluator) Evaluate(input Input) Status {
	status := Status{
		Ready: input.CacheHealthy,
		Components: map[string]bool{
			"cache":  input.CacheHealthy,
			"github": input.GitHubHealthy,
		},
	}

	switch {
	case !input.CacheHealthy:
		status.Mode = ModeUnhealthy
	case !input.GitHubHealthy:
		status.Mode = ModeDegraded
	default:
		status.Mode = ModeHealthy
	}
	return status
}

// CacheProber verifies cache store connectivity.
type CacheProber interface {
	Ping(ctx context.Context) error
}

// UpstreamProber verifies upstream API reachability.
type UpstreamProber interface {
	Probe(ctx context.Context) error
}

// Monitor periodically probes dependencies and caches the evaluated status.
type Monitor struct {
	cache     CacheProber
	upstream  UpstreamProber
	evaluator *StatusEvaluator
	interval  time.Duration
	logger    *zap.Logger

	mu     sync.RWMutex
	status Status
}

// NewMonitor creates a dependency health monitor.
func NewMonitor(cache CacheProber, upstream UpstreamProber, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		cache:     cache,
		upstream:  upstream,
		evaluator: NewStatusEvaluator(),
		interval:  interval,
		logger:    logger,
		status:    Status{Mode: ModeUnhealthy, Components: map[string]bool{}},
	}
}

// Run probes dependencies until ctx is canceled.
func (m *Monitor) Run(ctx context.Context) {
	m.ProbeOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ProbeOnce(ctx)
		}
	}
}

// ProbeOnce probes each dependency once and stores the evaluated status.
func (m *Monitor) ProbeOnce(ctx context.Context) {
	input := Input{}

	if m.cache != nil {
		if err := m.cache.Ping(ctx); err != nil {
			m.logger.Warn("cache health probe failed", zap.Error(err))
		} else {
			input.CacheHealthy = true
		}
	}
	if m.upstream != nil {
		if err := m.upstream.Probe(ctx); err != nil {
			m.logger.Warn("github health probe failed", zap.Error(err))
		} else {
			input.GitHubHealthy = true
		}
	}

	status := m.evaluator.Evaluate(input)
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

// CurrentStatus returns the most recently evaluated status.
func (m *Monitor) CurrentStatus(context.Context) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// NewHandler serves liveness and readiness over HTTP from a Provider.
// /livez always succeeds; /readyz fails unless ready; any other path
// (conventionally /healthz) reports the full status document.
func NewHandler(provider Provider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/livez") {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		status := Status{Mode: ModeUnhealthy, Components: map[string]bool{}}
		if provider != nil {
			status = provider.CurrentStatus(r.Context())
		}

		code := http.StatusOK
		if strings.HasSuffix(r.URL.Path, "/readyz") && !status.Ready {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})
}
