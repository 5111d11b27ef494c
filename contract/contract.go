//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"bell-registry/domain/event"
)

// StreamSink is one live outbound stream to a single browser tab or device.
// Send must be safe for concurrent use: the heartbeat loop and the fanout
// publisher write from different goroutines.
type StreamSink interface {
	Send(e event.StreamEvent) error
}

// IRegistry is the process-wide directory of live stream connections.
// A connection id appears under at most one owner.
type IRegistry interface {
	// Register stores the sink under the owner and returns a fresh
	// connection id. It always succeeds.
	Register(ownerUserID string, sink StreamSink) string
	// Remove deletes exactly one connection. Removing an unknown id is a
	// no-op: cleanup paths may race and both must be safe.
	Remove(ownerUserID, connectionID string)
	// Sinks returns the live sinks of the owner; empty means offline.
	Sinks(ownerUserID string) []StreamSink
}

// IPublisher delivers an event to every live connection of the targets.
// Delivery is best-effort and online-only; there is no return value to
// report on, by contract.
type IPublisher interface {
	Publish(targetUserIDs []string, e event.StreamEvent)
}
