// Package app wires the insight query endpoints, health probes, and metrics
// onto one HTTP router.
package app

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/orgstats/insights/internal/insights"
	"github.com/orgstats/insights/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InsightsService is the query surface exposed by the aggregation layer.
type InsightsService interface {
	Organization() string
	OrgTotalCommits(ctx context.Context) ([]insights.RepoCommits, error)
	OrgUserContributions(ctx context.Context, year int) ([]insights.UserContributions, error)
	OrgUserWeeklyContributions(ctx context.Context, year int, startDate, endDate string) ([]insights.UserWeeklyContributions, error)
}

// NewHTTPHandler wires insight, metrics, and health endpoints on a single mux.
func NewHTTPHandler(service InsightsService, metricsHandler, healthHandler http.Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := &insightsAPI{service: service, logger: logger}

	router := chi.NewRouter()
	traceMode := telemetry.TraceMode()
	router.Get("/insights", wrapHTTPHandler(traceMode, "insights", http.HandlerFunc(api.handleInsights)).ServeHTTP)
	router.Get("/insights/commits", wrapHTTPHandler(traceMode, "insights_commits", http.HandlerFunc(api.handleCommits)).ServeHTTP)
	router.Get("/insights/contributions", wrapHTTPHandler(traceMode, "insights_contributions", http.HandlerFunc(api.handleContributions)).ServeHTTP)
	router.Get("/insights/weekly", wrapHTTPHandler(traceMode, "insights_weekly", http.HandlerFunc(api.handleWeekly)).ServeHTTP)
	router.Handle("/metrics", wrapHTTPHandler(traceMode, "metrics", metricsHandler))
	router.Handle("/livez", wrapHTTPHandler(traceMode, "livez", healthHandler))
	router.Handle("/readyz", wrapHTTPHandler(traceMode, "readyz", healthHandler))
	router.Handle("/healthz", wrapHTTPHandler(traceMode, "healthz", healthHandler))
	return router
}

type insightsAPI struct {
	service InsightsService
	logger  *zap.Logger
}

type insightsResponse struct {
	OrganizationName        string                             `json:"organizationName"`
	OrgCommits              []insights.RepoCommits             `json:"orgCommits"`
	UserContributions       []insights.UserContributions       `json:"userContributions"`
	WeeklyUserContributions []insights.UserWeeklyContributions `json:"weeklyUserContributions"`
}

func (a *insightsAPI) handleInsights(w http.ResponseWriter, r *http.Request) {
	year, ok := a.yearParam(w, r)
	if !ok {
		return
	}
	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")

	ctx := r.Context()
	commits, err := a.service.OrgTotalCommits(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}
	contributions, err := a.service.OrgUserContributions(ctx, year)
	if err != nil {
		a.writeError(w, err)
		return
	}
	weekly, err := a.service.OrgUserWeeklyContributions(ctx, year, startDate, endDate)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, insightsResponse{
		OrganizationName:        a.service.Organization(),
		OrgCommits:              commits,
		UserContributions:       contributions,
		WeeklyUserContributions: weekly,
	})
}

func (a *insightsAPI) handleCommits(w http.ResponseWriter, r *http.Request) {
	commits, err := a.service.OrgTotalCommits(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, commits)
}

func (a *insightsAPI) handleContributions(w http.ResponseWriter, r *http.Request) {
	year, ok := a.yearParam(w, r)
	if !ok {
		return
	}
	contributions, err := a.service.OrgUserContributions(r.Context(), year)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, contributions)
}

func (a *insightsAPI) handleWeekly(w http.ResponseWriter, r *http.Request) {
	year, ok := a.yearParam(w, r)
	if !ok {
		return
	}
	weekly, err := a.service.OrgUserWeeklyContributions(
		r.Context(), year, r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, weekly)
}

// yearParam parses the optional year query parameter; 0 means unset.
func (a *insightsAPI) yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year <= 0 {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "year must be a positive integer"})
		return 0, false
	}
	return year, true
}

func (a *insightsAPI) writeError(w http.ResponseWriter, err error) {
	// Aggregator errors are already sanitized per kind; the message is safe
	// to return verbatim.
	a.writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
}

func (a *insightsAPI) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Warn("write response", zap.Error(err))
	}
}

func wrapHTTPHandler(traceMode, route string, handler http.Handler) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	if strings.EqualFold(strings.TrimSpace(traceMode), "off") {
		return handler
	}

	operation := strings.TrimSpace(route)
	if operation == "" {
		operation = "handler"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.Tracer("org-insights/internal/app").Start(
			r.Context(),
			"http.server."+operation,
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		recorder := &statusCapturingResponseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}
		handler.ServeHTTP(recorder, r.WithContext(ctx))
		span.SetAttributes(attribute.Int("http.status_code", recorder.status))
		if recorder.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(recorder.status))
			return
		}
		span.SetStatus(codes.Ok, "request completed")
	})
}

type statusCapturingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingResponseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
