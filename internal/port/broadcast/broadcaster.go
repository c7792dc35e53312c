// Package broadcast defines the live feed of agent run progress.
package broadcast

import "context"

// Event is one update about a run.
type Event struct {
	Type    string
	RunID   string
	Payload any
}

// Broadcaster pushes run events to connected clients. Implementations must
// not block the caller on slow clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev Event)
}
