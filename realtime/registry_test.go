package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"bell-registry/domain/event"
)

type recordingSink struct {
	events []event.StreamEvent
}

func (s *recordingSink) Send(e event.StreamEvent) error {
	s.events = append(s.events, e)
	return nil
}

func TestRegistry_Register_One_User_One_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	userID := uuid.NewString()
	sink := &recordingSink{}

	// Given no user is connected
	req.Zero(registry.OpenConnections())

	// When the user opens a stream
	connectionID := registry.Register(userID, sink)

	// Then the connection is listed under the user
	req.NotEmpty(connectionID)
	req.Len(registry.Sinks(userID), 1)
	req.Equal(1, registry.ConnectedUsers())
	req.Equal(1, registry.OpenConnections())
}

func TestRegistry_Register_One_User_Multiple_Tabs(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	userID := uuid.NewString()

	// When the same user opens two tabs
	id1 := registry.Register(userID, &recordingSink{})
	id2 := registry.Register(userID, &recordingSink{})

	// Then each tab gets its own connection id
	req.NotEqual(id1, id2)
	req.Len(registry.Sinks(userID), 2)
	req.Equal(1, registry.ConnectedUsers())
	req.Equal(2, registry.OpenConnections())
}

func TestRegistry_Remove_Keeps_Other_Tabs_Alive(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	userID := uuid.NewString()
	kept := &recordingSink{}

	// Given a user with two tabs
	closing := registry.Register(userID, &recordingSink{})
	registry.Register(userID, kept)

	// When one tab disconnects
	registry.Remove(userID, closing)

	// Then only that exact connection is gone
	sinks := registry.Sinks(userID)
	req.Len(sinks, 1)
	req.Same(kept, sinks[0])
}

func TestRegistry_Remove_Last_Connection_Marks_User_Offline(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	userID := uuid.NewString()

	connectionID := registry.Register(userID, &recordingSink{})

	// When the only connection is removed
	registry.Remove(userID, connectionID)

	// Then the user is offline and no entry is retained
	req.Empty(registry.Sinks(userID))
	req.Zero(registry.ConnectedUsers())
	req.Zero(registry.OpenConnections())
}

func TestRegistry_Remove_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	userID := uuid.NewString()

	connectionID := registry.Register(userID, &recordingSink{})

	// When the same connection is removed twice
	registry.Remove(userID, connectionID)
	registry.Remove(userID, connectionID)

	// Then the second call changes nothing
	req.Empty(registry.Sinks(userID))
	req.Zero(registry.OpenConnections())
}

func TestRegistry_Remove_Unknown_User_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()

	registry.Remove(uuid.NewString(), uuid.NewString())

	req.Zero(registry.OpenConnections())
}

func TestRegistry_Sinks_Never_Returns_Removed_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewConnectionRegistry()
	userID := uuid.NewString()

	// Given a churn of registrations and removals
	var removed []string
	var kept int
	for i := 0; i < 10; i++ {
		id := registry.Register(userID, &recordingSink{})
		if i%2 == 0 {
			removed = append(removed, id)
		} else {
			kept++
		}
	}
	for _, id := range removed {
		registry.Remove(userID, id)
	}

	// Then exactly the surviving registrations are listed
	req.Len(registry.Sinks(userID), kept)
}
