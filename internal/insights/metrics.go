package insights

import "github.com/prometheus/client_golang/prometheus"

// Aggregate kind labels used on cache and upstream metrics.
const (
	aggregateTotalCommits        = "total_commits"
	aggregateUserContributions   = "user_contributions"
	aggregateWeeklyContributions = "weekly_contributions"
)

// Metrics counts cache and upstream activity per aggregate kind. A nil
// Metrics is valid and records nothing.
type Metrics struct {
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	upstreamCalls  *prometheus.CounterVec
	upstreamErrors *prometheus.CounterVec
}

// NewMetrics creates and registers insight counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "org_insights",
			Name:      "cache_hits_total",
			Help:      "Cache hits per aggregate kind.",
		}, []string{"aggregate"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "org_insights",
			Name:      "cache_misses_total",
			Help:      "Cache misses per aggregate kind.",
		}, []string{"aggregate"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "org_insights",
			Name:      "upstream_calls_total",
			Help:      "GraphQL calls issued upstream per aggregate kind.",
		}, []string{"aggregate"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "org_insights",
			Name:      "upstream_errors_total",
			Help:      "Failed aggregations per aggregate kind.",
		}, []string{"aggregate"}),
	}
	if reg != nil {
		reg.MustRegister(m.cacheHits, m.cacheMisses, m.upstreamCalls, m.upstreamErrors)
	}
	return m
}

func (m *Metrics) cacheHit(aggregate string) {
	if m != nil {
		m.cacheHits.WithLabelValues(aggregate).Inc()
	}
}

func (m *Metrics) cacheMiss(aggregate string) {
	if m != nil {
		m.cacheMisses.WithLabelValues(aggregate).Inc()
	}
}

func (m *Metrics) upstreamCall(aggregate string) {
	if m != nil {
		m.upstreamCalls.WithLabelValues(aggregate).Inc()
	}
}

func (m *Metrics) upstreamError(aggregate string) {
	if m != nil {
		m.upstreamErrors.WithLabelValues(aggregate).Inc()
	}
}
