package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation status labels
const (
	StatusSuccess    = "success"
	StatusDuplicate  = "duplicate"
	StatusFinished   = "finished"
	StatusNotFound   = "not_found"
	StatusRejected   = "rejected"
	StatusUnexpected = "unexpected"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Envelope metrics
	EnvelopesCreated   *prometheus.CounterVec
	EnvelopesFinished  prometheus.Counter
	EnvelopesCancelled *prometheus.CounterVec
	Claims             *prometheus.CounterVec
	ClaimDuration      prometheus.Histogram
	Relays             *prometheus.CounterVec

	// Generic per-operation metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Balance metrics
	Refunds     prometheus.Counter
	Adjustments *prometheus.CounterVec

	// Notification metrics
	Notifications *prometheus.CounterVec

	// Infrastructure metrics
	LockWait       prometheus.Histogram
	StorageErrors  *prometheus.CounterVec
	StorageRetries *prometheus.CounterVec
	BalanceDrift   prometheus.Gauge
	OutboxBacklog  prometheus.Gauge
	RateLimitHits  *prometheus.CounterVec
	SweptEnvelopes prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all Prometheus metrics on reg
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EnvelopesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hongbao_envelopes_created_total",
				Help: "Total number of envelopes created",
			},
			[]string{"asset", "origin"},
		),
		EnvelopesFinished: factory.NewCounter(prometheus.CounterOpts{
			Name: "hongbao_envelopes_finished_total",
			Help: "Total number of envelopes fully claimed",
		}),
		EnvelopesCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hongbao_envelopes_cancelled_total",
				Help: "Total number of envelopes cancelled by reason",
			},
			[]string{"reason"},
		),
		Claims: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hongbao_claims_total",
				Help: "Total claim attempts by outcome",
			},
			[]string{"outcome"},
		),
		ClaimDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hongbao_claim_duration_seconds",
			Help:    "Duration of claim operations",
			Buckets: prometheus.DefBuckets,
		}),
		Relays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hongbao_relays_total",
				Help: "Total relay attempts by status",
			},
			[]string{"status"},
		),

		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hongbao_operation_total",
				Help: "Envelope operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hongbao_operation_seconds",
				Help:    "Envelope operation latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		Refunds: factory.NewCounter(prometheus.CounterOpts{
			Name: "hongbao_refunds_total",
			Help: "Total refund tickets consumed",
		}),
		Adjustments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hongbao_adjustments_total",
				Help: "Operator balance adjustments by direction",
			},
			[]string{"direction"},
		),

		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hongbao_notifications_total",
				Help: "Notification deliveries by status",
			},
			[]string{"status"},
		),

		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hongbao_envelope_lock_wait_seconds",
			Help:    "Time spent waiting for the per-envelope advisory lock",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		StorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hongbao_storage_errors_total",
				Help: "Storage failures surfaced to callers by operation",
			},
			[]string{"operation"},
		),
		StorageRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hongbao_storage_retries_total",
				Help: "Contended writes retried by SQLSTATE",
			},
			[]string{"sqlstate"},
		),
		BalanceDrift: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hongbao_balance_drift_accounts",
			Help: "Balances whose snapshot differs from the ledger sum at last reconciliation",
		}),
		OutboxBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hongbao_outbox_batch_size",
			Help: "Number of unpublished events fetched in the last poll",
		}),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hongbao_rate_limit_hits_total",
				Help: "Requests rejected by rate limiting",
			},
			[]string{"scope"},
		),
		SweptEnvelopes: factory.NewCounter(prometheus.CounterOpts{
			Name: "hongbao_envelopes_expired_total",
			Help: "Total envelopes refunded by the expiry sweeper",
		}),
	}
}
