// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing, subscribing and request/reply.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Request sends data and waits for a single reply, bounded by ctx.
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for NATS subjects used by StatForge.
const (
	SubjectRunCompleted = "agent.runs.completed" // one message per finished question
	SubjectRunStep      = "agent.runs.step"      // one message per loop iteration (verbose runs)

	// Retrieval request/reply: retrieval.search.{collection}. Not persisted in JetStream.
	SubjectSearch = "retrieval.search"
)

// Retrieval collections addressed under SubjectSearch.
const (
	CollectionStats = "stats"
	CollectionNews  = "news"
)

// SearchSubject returns the request/reply subject for a collection.
func SearchSubject(collection string) string {
	return SubjectSearch + "." + collection
}
