// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// LogEvent carries a formatted log entry.
	LogEvent EventType = "log"
	// StageStartedEvent marks the start of a scrape stage.
	StageStartedEvent EventType = "stage_started"
	// StageFinishedEvent marks the end of a scrape stage.
	StageFinishedEvent EventType = "stage_finished"
	// PageFetchedEvent is published for every page read from cache or network.
	PageFetchedEvent EventType = "page_fetched"
	// CacheChangedEvent is published when the page cache changes on disk.
	CacheChangedEvent EventType = "cache_changed"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
