package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScoreRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mindcast_score_requests_total",
		Help: "Score results produced, by source tier",
	}, []string{"source"})
	TierFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mindcast_tier_failures_total",
		Help: "Tier attempts that failed and fell through",
	}, []string{"tier"})
	TierSkips = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mindcast_tier_skips_total",
		Help: "Tier attempts skipped for missing configuration or entry condition",
	}, []string{"tier"})
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mindcast_cache_hits_total",
		Help: "Fresh cached results returned without recomputation",
	})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mindcast_cache_misses_total",
		Help: "Cache lookups that were absent or stale",
	})
	PipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mindcast_pipeline_duration_seconds",
		Help:    "Full pipeline invocation duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	RefreshRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mindcast_refresh_runs_total",
		Help: "Total leaderboard refresh runs",
	})
	RefreshErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mindcast_refresh_errors_total",
		Help: "Total leaderboard refresh errors",
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mindcast_command_runs_total",
		Help: "CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mindcast_command_errors_total",
		Help: "CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(ScoreRequests, TierFailures, TierSkips, CacheHits, CacheMisses,
		PipelineDuration, RefreshRuns, RefreshErrors, CommandRuns, CommandErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

func IncScore(source string)  { ScoreRequests.WithLabelValues(source).Inc() }
func IncTierFailure(t string) { TierFailures.WithLabelValues(t).Inc() }
func IncTierSkip(t string)    { TierSkips.WithLabelValues(t).Inc() }
func IncCacheHit()            { CacheHits.Inc() }
func IncCacheMiss()           { CacheMisses.Inc() }

// ObservePipelineDuration records one invocation's duration.
func ObservePipelineDuration(start time.Time) {
	PipelineDuration.Observe(time.Since(start).Seconds())
}

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
