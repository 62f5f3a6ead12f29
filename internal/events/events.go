package events

import "context"

// Run lifecycle event types, published to StreamRuns and fanned out to
// websocket subscribers.
const (
	EventRunStarted          = "run_started"
	EventVideoGenerated      = "video_generated"
	EventRunCompleted        = "run_completed"
	EventCredentialRefreshed = "credential_refreshed"
)

const StreamRuns = "events:runs"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// NopPublisher discards events; used where no broker is wired (tests).
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
