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

func NewServer(store tournament.TournamentStore, batches uploads.BatchStore, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, processor *processor.Processor, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Store:          store,
		Batches:        batches,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Processor:      processor,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// The identity middleware resolves the caller from the admin bearer token
	// or the X-Team-ID header; handlers decide what that identity may do.
	identity := identityMiddleware(s.Cfg.AdminToken)
	verifySlack := slackVerifyMiddleware(s.Cfg.Slack.SigningSecret)

	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/leaderboard", Chain(s.LeaderboardHandler(), paramsMiddleware))
	s.Router.Handle("/tournaments", Chain(s.TournamentsHandler(), paramsMiddleware, identity))
	s.Router.Handle("/teams", Chain(s.TeamsHandler(), paramsMiddleware, identity))
	s.Router.Handle("/teams/reset", Chain(s.ResetTeamHandler(), paramsMiddleware, identity))
	s.Router.Handle("/records", Chain(s.RecordsHandler(), paramsMiddleware, identity))
	s.Router.Handle("/records/correct", Chain(s.CorrectRecordHandler(), paramsMiddleware, identity))
	s.Router.Handle("/review", Chain(s.ReviewQueueHandler(), paramsMiddleware))
	s.Router.Handle("/analyze", Chain(s.AnalyzeHandler(), paramsMiddleware, identity))
	s.Router.Handle("/uploads", Chain(s.UploadsHandler(), paramsMiddleware, identity))
	s.Router.Handle("/recompute", Chain(s.RecomputeHandler(), paramsMiddleware, identity))
	s.Router.Handle("/clear", Chain(s.ClearStoreHandler(), paramsMiddleware, identity))
	s.Router.Handle("/pubsub/notify-result", Chain(s.NotifyResultHandler(), paramsMiddleware))
	s.Router.Handle("/pubsub/notify-review", Chain(s.NotifyReviewHandler(), paramsMiddleware))
	s.Router.Handle("/slack/command/leaderboard", Chain(s.LeaderboardCommandHandler(), paramsMiddleware, verifySlack))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
