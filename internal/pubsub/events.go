// Package pubsub fans out preview, watcher and log events to subscribers.
package pubsub

import (
	"context"
	"time"
)

// EventType identifies what happened to the payload.
type EventType string

const (
	OpenedEvent       EventType = "opened"
	ClosedEvent       EventType = "closed"
	RenderedEvent     EventType = "rendered"
	RenderFailedEvent EventType = "render_failed"
	ChangedEvent      EventType = "changed"
	LoggedEvent       EventType = "logged"
)

// Event is a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out subscription channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher publishes payloads under an event type.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
