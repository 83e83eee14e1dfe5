// Package metrics defines and registers all custom Prometheus metrics for the
// fulfillment engine. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at package init; the
// router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fulfillment"

// ── Routing metrics ───────────────────────────────────────────────────────────

// DecisionsTotal counts fulfillment decisions by resulting mode.
// Label:
//   - mode: "OWN_FLEET", "PARTNER", or "HYBRID"
var DecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_total",
		Help:      "Total number of fulfillment routing decisions, by mode.",
	},
	[]string{"mode"},
)

// JourneyPlansCreatedTotal counts persisted journey plans by mode.
var JourneyPlansCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journey_plans_created_total",
		Help:      "Total number of journey plans persisted, by fulfillment mode.",
	},
	[]string{"mode"},
)

// ── Transit-time metrics ──────────────────────────────────────────────────────

// TransitLookupsTotal counts transit-time resolutions by result source.
// Label:
//   - source: "historical" or "estimated"
var TransitLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transit_lookups_total",
		Help:      "Total number of transit-time resolutions, by source tier.",
	},
	[]string{"source"},
)

// AggregatedRoutesTotal counts statistics rows upserted by the aggregation job.
var AggregatedRoutesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregated_routes_total",
		Help:      "Total number of historical transit-time rows upserted.",
	},
)

// ── Prediction metrics ────────────────────────────────────────────────────────

// PredictionsGeneratedTotal counts stored predictions by risk bucket.
// Label:
//   - risk: "LOW", "MEDIUM", or "HIGH"
var PredictionsGeneratedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_generated_total",
		Help:      "Total number of ETA predictions generated, by delay-risk bucket.",
	},
	[]string{"risk"},
)

// PredictionFailuresTotal counts per-shipment prediction failures.
// Label:
//   - stage: where the failure surfaced ("batch", "refresh", "on_demand")
var PredictionFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prediction_failures_total",
		Help:      "Total number of per-shipment prediction failures, by stage.",
	},
	[]string{"stage"},
)

// BatchDuration measures end-to-end batch prediction runs.
var BatchDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_prediction_duration_seconds",
		Help:      "Duration of batch prediction runs from query to sorted result.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)

// RefreshQueueDepth tracks the jobs waiting in each refresh worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var RefreshQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "refresh_queue_depth",
		Help:      "Current number of jobs pending in each refresh worker channel.",
	},
	[]string{"worker_id"},
)
