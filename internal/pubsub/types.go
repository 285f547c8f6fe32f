package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	// EventNotifyResult fans out a freshly scored match record.
	EventNotifyResult EventType = "notify-result"
	// EventNotifyReview fans out a record that needs a human look.
	EventNotifyReview EventType = "notify-review"
)
