package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	RunCount             prometheus.Counter
	RunFailures          prometheus.Counter
	PartialFailures      prometheus.Counter
	Classifications      *prometheus.CounterVec
	DraftsCreated        prometheus.Counter
	RecordsExtracted     prometheus.Counter
	NotificationFailures prometheus.Counter
	RunDuration          prometheus.Histogram
	MessagesProcessed    prometheus.Counter
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		RunCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_triage_run_count",
			Help: "Total number of triage runs started",
		}),
		RunFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_triage_run_failures",
			Help: "Total number of triage runs aborted by a fatal error",
		}),
		PartialFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_triage_partial_failures",
			Help: "Total number of triage runs finished with partial_failure status",
		}),
		Classifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "inbox_triage_classifications_total",
			Help: "Total number of classified messages by label",
		}, []string{"label"}),
		DraftsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_triage_drafts_created",
			Help: "Total number of reply drafts created for sales messages",
		}),
		RecordsExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_triage_financial_records_extracted",
			Help: "Total number of financial records extracted from receipts",
		}),
		NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_triage_notification_failures",
			Help: "Total number of failed approval notification sends",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "inbox_triage_run_duration_seconds",
			Help:    "Time spent processing one poll batch",
			Buckets: prometheus.DefBuckets,
		}),
		MessagesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inbox_triage_messages_processed",
			Help: "Total number of inbound messages processed",
		}),
	}
}
