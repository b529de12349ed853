package events

import "context"

// Session event stream
const StreamSession = "events:session"

// Event types
const (
	EventSessionCreated       = "session_created"
	EventPaymentReceived      = "payment_received"
	EventSessionStatusChanged = "session_status_changed"
	EventMintCompleted        = "mint_completed"
	EventSweepCompleted       = "sweep_completed"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// SessionID pulls the session id out of an event payload, if present.
func (e Event) SessionID() string {
	id, _ := e.Payload["session_id"].(string)
	return id
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
