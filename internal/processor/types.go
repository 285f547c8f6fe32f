package processor

import (
	"github.com/mauv0809/chicken-dinner/internal/extractor"
	"github.com/mauv0809/chicken-dinner/internal/metrics"
	"github.com/mauv0809/chicken-dinner/internal/pubsub"
)

// Processor handles the business logic of turning screenshots and manual
// entries into scored match records.
type Processor struct {
	store     Store
	batches   Batches
	extractor extractor.Extractor
	pubsub    pubsub.PubSubClient
	notifier  Notifier
	metrics   metrics.Metrics
}
