package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	SubmissionCount   prometheus.Counter
	SpamRejectedCount prometheus.Counter
	RateLimitedCount  prometheus.Counter
	StoredCount       prometheus.Counter
	EmailSentCount    prometheus.Counter
	EmailFailedCount  prometheus.Counter
	VerifiedCount     prometheus.Counter
	PurgedCount       prometheus.Counter
	ProcessingTime    prometheus.Histogram
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		SubmissionCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contact_form_submission_count",
			Help: "Total number of contact form submission attempts",
		}),
		SpamRejectedCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contact_form_spam_rejected_count",
			Help: "Total number of submissions rejected by spam checks",
		}),
		RateLimitedCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contact_form_rate_limited_count",
			Help: "Total number of submissions rejected by the rate limiter",
		}),
		StoredCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contact_form_stored_count",
			Help: "Total number of contact messages persisted",
		}),
		EmailSentCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contact_form_email_sent_count",
			Help: "Total number of emails sent",
		}),
		EmailFailedCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contact_form_email_failed_count",
			Help: "Total number of email sends that failed",
		}),
		VerifiedCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contact_form_verified_count",
			Help: "Total number of messages confirmed through email verification",
		}),
		PurgedCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contact_form_purged_count",
			Help: "Total number of expired unverified messages purged",
		}),
		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "contact_form_processing_duration_seconds",
			Help:    "Time spent processing contact form submissions",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
