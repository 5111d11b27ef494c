package realtime

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"bell-registry/domain/event"
)

type failingSink struct {
	calls int
}

func (s *failingSink) Send(event.StreamEvent) error {
	s.calls++
	return fmt.Errorf("transport already gone")
}

func TestPublisher_Delivers_To_Every_Connection_Of_Every_Target(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	publisher := NewFanoutPublisher(slog.Default(), registry)

	clientID := uuid.NewString()
	professionalID := uuid.NewString()

	// Given the client has two tabs and the professional one
	clientTab1 := &recordingSink{}
	clientTab2 := &recordingSink{}
	professionalTab := &recordingSink{}
	registry.Register(clientID, clientTab1)
	registry.Register(clientID, clientTab2)
	registry.Register(professionalID, professionalTab)

	// When an event targets both participants
	e := event.StreamEvent{Type: event.TypeNewMessage, ConversationID: "c1"}
	publisher.Publish([]string{clientID, professionalID}, e)

	// Then all three connections received it once
	req.Len(clientTab1.events, 1)
	req.Len(clientTab2.events, 1)
	req.Len(professionalTab.events, 1)
	req.Equal(e, clientTab1.events[0])
}

func TestPublisher_Offline_Target_Is_A_Silent_NoOp(t *testing.T) {
	registry := NewConnectionRegistry()
	publisher := NewFanoutPublisher(slog.Default(), registry)

	// When publishing to a user with no open stream
	publisher.Publish([]string{uuid.NewString()}, event.ConversationEnded("c1"))

	// Then nothing happens, and in particular nothing panics
}

func TestPublisher_Failing_Sink_Does_Not_Abort_Delivery(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	publisher := NewFanoutPublisher(slog.Default(), registry)

	broken := &failingSink{}
	healthy := &recordingSink{}
	userID := uuid.NewString()
	otherID := uuid.NewString()
	registry.Register(userID, broken)
	registry.Register(otherID, healthy)

	// When one sink errors mid-fanout
	publisher.Publish([]string{userID, otherID}, event.ConversationEnded("c1"))

	// Then the remaining sinks were still written to
	req.Equal(1, broken.calls)
	req.Len(healthy.events, 1)
}

func TestPublisher_Duplicate_Targets_Receive_Once(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	publisher := NewFanoutPublisher(slog.Default(), registry)

	userID := uuid.NewString()
	sink := &recordingSink{}
	registry.Register(userID, sink)

	// When the same user appears twice in the target set
	publisher.Publish([]string{userID, userID}, event.ConversationEnded("c1"))

	// Then their connections are written exactly once
	req.Len(sink.events, 1)
}
