package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hugo-lorenzo-mato/shockcast/internal/service"
)

const namespace = "shockcast"

type httpMetrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rateLimited prometheus.Counter
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.rateLimited)
	return m
}

// instrument records request counts and latency keyed by the matched chi
// route pattern, so path parameters do not explode label cardinality.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.http.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		s.http.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// analysisCollector exports the in-process MetricsCollector at scrape time.
type analysisCollector struct {
	metrics *service.MetricsCollector

	analyses        *prometheus.Desc
	failed          *prometheus.Desc
	degraded        *prometheus.Desc
	consensusRuns   *prometheus.Desc
	scenarioBatches *prometheus.Desc
	abstained       *prometheus.Desc
	historyErrors   *prometheus.Desc
	riskLevels      *prometheus.Desc
	stageSeconds    *prometheus.Desc
	roleAbstentions *prometheus.Desc
}

func registerAnalysisMetrics(reg prometheus.Registerer, m *service.MetricsCollector) {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	reg.MustRegister(&analysisCollector{
		metrics:         m,
		analyses:        desc("analyses_total", "Completed analyses."),
		failed:          desc("analyses_rejected_total", "Analyses rejected before completion."),
		degraded:        desc("analyses_degraded_total", "Analyses that completed with at least one degraded stage."),
		consensusRuns:   desc("consensus_runs_total", "Analyses that ran the multi-role consensus layer."),
		scenarioBatches: desc("scenario_batches_total", "Scenario comparisons run."),
		abstained:       desc("ensemble_abstentions_total", "Ensemble models that abstained."),
		historyErrors:   desc("history_errors_total", "Failed history store writes or lookups."),
		riskLevels:      desc("analyses_by_risk_level", "Completed analyses by risk level.", "risk_level"),
		stageSeconds:    desc("stage_duration_seconds_total", "Cumulative time spent per pipeline stage.", "stage"),
		roleAbstentions: desc("consensus_role_abstentions_total", "Consensus role abstentions by role.", "role"),
	})
}

func (c *analysisCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.analyses
	ch <- c.failed
	ch <- c.degraded
	ch <- c.consensusRuns
	ch <- c.scenarioBatches
	ch <- c.abstained
	ch <- c.historyErrors
	ch <- c.riskLevels
	ch <- c.stageSeconds
	ch <- c.roleAbstentions
}

func (c *analysisCollector) Collect(ch chan<- prometheus.Metric) {
	t := c.metrics.GetTotals()
	counter := func(d *prometheus.Desc, v int, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	counter(c.analyses, t.Analyses)
	counter(c.failed, t.Failed)
	counter(c.degraded, t.Degraded)
	counter(c.consensusRuns, t.ConsensusRuns)
	counter(c.scenarioBatches, t.ScenarioBatches)
	counter(c.abstained, t.AbstainedModels)
	counter(c.historyErrors, t.HistoryErrors)

	for level, n := range t.RiskLevels {
		ch <- prometheus.MustNewConstMetric(c.riskLevels, prometheus.GaugeValue, float64(n), level)
	}
	for stage, sm := range c.metrics.GetAllStageMetrics() {
		ch <- prometheus.MustNewConstMetric(c.stageSeconds, prometheus.CounterValue, sm.TotalDuration.Seconds(), stage)
	}
	for role, rm := range c.metrics.GetRoleMetrics() {
		counter(c.roleAbstentions, rm.Abstentions, role)
	}
}
