package http

import (
	"net/http"

	"github.com/mauv0809/chicken-dinner/internal/config"
	"github.com/mauv0809/chicken-dinner/internal/metrics"
	"github.com/mauv0809/chicken-dinner/internal/notifier"
	"github.com/mauv0809/chicken-dinner/internal/processor"
	"github.com/mauv0809/chicken-dinner/internal/pubsub"
	"github.com/mauv0809/chicken-dinner/internal/tournament"
	"github.com/mauv0809/chicken-dinner/internal/uploads"
)

type Server struct {
	Store          tournament.TournamentStore
	Batches        uploads.BatchStore
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Processor      *processor.Processor
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}
