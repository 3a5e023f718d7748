package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle metrics
var (
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warmup_cycles_total",
			Help: "Total number of warmup cycles by result",
		},
		[]string{"result"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "warmup_cycle_duration_seconds",
			Help:    "Duration of completed warmup cycles in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	ActivitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warmup_activities_total",
			Help: "Total number of engagement steps recorded",
		},
		[]string{"step", "status"},
	)

	AccountFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warmup_account_failures_total",
			Help: "Total number of account iterations that failed",
		},
	)

	DailyResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warmup_daily_resets_total",
			Help: "Total number of daily counter resets",
		},
	)
)

// Spam scoring and reply metrics
var (
	SpamScoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warmup_spam_scores_total",
			Help: "Total number of spam scores recorded by source",
		},
		[]string{"provider"},
	)

	SpamCheckRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warmup_spamcheck_requests_total",
			Help: "Total number of external spam check requests",
		},
		[]string{"result"},
	)

	ReplyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warmup_reply_requests_total",
			Help: "Total number of reply generation requests",
		},
		[]string{"provider", "result"},
	)
)

// Reputation metrics
var (
	ReputationScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warmup_reputation_score",
			Help: "Latest reputation score per account",
		},
		[]string{"account_id"},
	)

	ReputationAlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warmup_reputation_alerts_total",
			Help: "Total number of reputation drop alerts raised",
		},
	)

	AlertDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warmup_alert_deliveries_total",
			Help: "Total number of alert deliveries by sink and result",
		},
		[]string{"sink", "result"},
	)
)

// Storage metrics
var (
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warmup_store_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"operation", "status"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warmup_store_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
