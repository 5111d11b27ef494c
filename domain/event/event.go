package event

import (
	"time"

	"bell-registry/domain"
)

// Reserved stream event types. "connected" and "heartbeat" belong to the
// transport and are consumed by the client controller; everything else is
// forwarded to application handlers.
const (
	TypeConnected           = "connected"
	TypeHeartbeat           = "heartbeat"
	TypeNewMessage          = "new-message"
	TypeMessageNotification = "message-notification"
	TypeConversationEnded   = "conversation-ended"
)

// StreamEvent is the wire frame pushed over a live stream. It is transient:
// it exists only between publisher and connected clients, never on disk.
type StreamEvent struct {
	Type           string `json:"type"`
	Data           any    `json:"data,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

func Connected(connectionID string) StreamEvent {
	return StreamEvent{
		Type: TypeConnected,
		Data: map[string]string{"connectionId": connectionID},
	}
}

func Heartbeat(at time.Time) StreamEvent {
	return StreamEvent{
		Type: TypeHeartbeat,
		Data: map[string]string{"timestamp": at.UTC().Format(time.RFC3339)},
	}
}

func NewMessage(m domain.Message) StreamEvent {
	return StreamEvent{
		Type:           TypeNewMessage,
		Data:           m,
		ConversationID: m.ConversationID,
	}
}

// MessageNotification targets the receiving participant only, so badge
// counters do not fire on the sender's own tabs.
func MessageNotification(m domain.Message) StreamEvent {
	return StreamEvent{
		Type:           TypeMessageNotification,
		Data:           m,
		ConversationID: m.ConversationID,
	}
}

func ConversationEnded(conversationID string) StreamEvent {
	return StreamEvent{
		Type:           TypeConversationEnded,
		ConversationID: conversationID,
	}
}
