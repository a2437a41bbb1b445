// Package metrics provides Prometheus metrics for QuestForge.
// Counters, gauges and histograms for logins, quest scoring, badges,
// daily challenges, store health and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Logins & Streaks ───────────────────────────────────────────────────────

// Logins tracks login events by streak rule (first, same_day, extended, reset).
var Logins = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questforge",
	Name:      "logins_total",
	Help:      "Total login events by streak transition.",
}, []string{"rule"})

// ─── Quests ─────────────────────────────────────────────────────────────────

// QuestSubmissions tracks scored submissions by difficulty.
var QuestSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questforge",
	Name:      "quest_submissions_total",
	Help:      "Total scored quest submissions.",
}, []string{"difficulty"})

// QuestScore tracks the distribution of final scores.
var QuestScore = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "questforge",
	Name:      "quest_final_score",
	Help:      "Final score of quest submissions.",
	Buckets:   []float64{0, 25, 50, 100, 150, 200, 300, 450, 600},
})

// XPAwarded tracks total XP granted.
var XPAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "questforge",
	Name:      "xp_awarded_total",
	Help:      "Total experience points awarded.",
})

// LevelUps tracks level transitions by the level reached.
var LevelUps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questforge",
	Name:      "level_ups_total",
	Help:      "Total level-ups by level reached.",
}, []string{"level"})

// ─── Badges ─────────────────────────────────────────────────────────────────

// BadgesAwarded tracks newly earned badges.
var BadgesAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questforge",
	Name:      "badges_awarded_total",
	Help:      "Total badges awarded by badge id.",
}, []string{"badge"})

// ─── Daily Challenges ───────────────────────────────────────────────────────

// Challenges tracks daily challenge lifecycle events
// (created, rerolled, completed, transient, pruned).
var Challenges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questforge",
	Name:      "daily_challenges_total",
	Help:      "Daily challenge lifecycle events.",
}, []string{"event"})

// ─── Store ──────────────────────────────────────────────────────────────────

// StoreDegraded tracks operations that fell back to in-memory state.
var StoreDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questforge",
	Name:      "store_degraded_total",
	Help:      "Operations served from memory because the store failed.",
}, []string{"op"})

// StoreLatency tracks document store round-trips.
var StoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "questforge",
	Name:      "store_latency_seconds",
	Help:      "Document store operation latency.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
}, []string{"backend", "op"})

// ObserveStore records the latency of one store operation started at start.
// Use as: defer metrics.ObserveStore("sqlite", "get", time.Now()).
func ObserveStore(backend, op string, start time.Time) {
	StoreLatency.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

// ─── API ────────────────────────────────────────────────────────────────────

// APIRequests tracks HTTP requests by route pattern and status code.
var APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questforge",
	Name:      "api_requests_total",
	Help:      "Total API requests.",
}, []string{"route", "status"})

// APIRateLimited tracks requests rejected by the per-client limiter.
var APIRateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "questforge",
	Name:      "api_rate_limited_total",
	Help:      "Requests rejected with 429.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "questforge",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// ─── Jobs ───────────────────────────────────────────────────────────────────

// JobRuns tracks scheduled job executions by job and result.
var JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "questforge",
	Name:      "job_runs_total",
	Help:      "Scheduled job runs by outcome.",
}, []string{"job", "result"})
