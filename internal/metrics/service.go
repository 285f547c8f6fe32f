package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		UploadsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubg_uploads_received_total",
			Help: "The total number of screenshot uploads received.",
		}),
		ExtractionAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubg_extraction_attempts_total",
			Help: "The total number of vision model calls made, including retries.",
		}),
		ExtractionRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubg_extraction_retries_total",
			Help: "The total number of vision model calls that were retried.",
		}),
		ExtractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubg_extraction_failures_total",
			Help: "The total number of extractions that ended without a usable result.",
		}),
		RecordsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubg_records_scored_total",
			Help: "The total number of match records scored, from extraction or manual entry.",
		}),
		RecordsFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubg_records_flagged_total",
			Help: "The total number of match records flagged for manual review.",
		}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pubg_recompute_duration_seconds",
			Help:    "The duration of team aggregate recomputes.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubg_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubg_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pubg_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.UploadsReceived,
		s.ExtractionAttempts,
		s.ExtractionRetries,
		s.ExtractionFailures,
		s.RecordsScored,
		s.RecordsFlagged,
		s.RecomputeDuration,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncUploadsReceived() {
	s.UploadsReceived.Inc()
}

func (s *Service) IncExtractionAttempts() {
	s.ExtractionAttempts.Inc()
}

func (s *Service) IncExtractionRetries() {
	s.ExtractionRetries.Inc()
}

func (s *Service) IncExtractionFailures() {
	s.ExtractionFailures.Inc()
}

func (s *Service) IncRecordsScored() {
	s.RecordsScored.Inc()
}

func (s *Service) IncRecordsFlagged() {
	s.RecordsFlagged.Inc()
}

func (s *Service) ObserveRecomputeDuration(duration float64) {
	s.RecomputeDuration.Observe(duration)
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
