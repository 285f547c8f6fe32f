package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	UploadsReceived    prometheus.Counter
	ExtractionAttempts prometheus.Counter
	ExtractionRetries  prometheus.Counter
	ExtractionFailures prometheus.Counter
	RecordsScored      prometheus.Counter
	RecordsFlagged     prometheus.Counter
	RecomputeDuration  prometheus.Histogram
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}
