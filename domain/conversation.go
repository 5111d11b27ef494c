package domain

import "time"

type Role string

const (
	RoleClient       Role = "CLIENT"
	RoleProfessional Role = "PROFESSIONAL"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleClient:
		return RoleClient, true
	case RoleProfessional:
		return RoleProfessional, true
	}
	return "", false
}

type ConversationStatus string

const (
	ConversationActive ConversationStatus = "ACTIVE"
	ConversationEnded  ConversationStatus = "ENDED"
)

// Conversation links exactly one client and one professional.
// The client opens it; the professional may only reply once the client
// has written.
type Conversation struct {
	ID             string             `json:"id"`
	ClientID       string             `json:"clientId"`
	ProfessionalID string             `json:"professionalId"`
	Status         ConversationStatus `json:"status"`
	CreatedAt      time.Time          `json:"createdAt"`
	LastMessageAt  time.Time          `json:"lastMessageAt"`
}

func (c Conversation) HasParticipant(userID string) bool {
	return userID != "" && (userID == c.ClientID || userID == c.ProfessionalID)
}

// OtherParticipant returns the counterpart of userID, or "" when userID
// is not a participant.
func (c Conversation) OtherParticipant(userID string) string {
	switch userID {
	case c.ClientID:
		return c.ProfessionalID
	case c.ProfessionalID:
		return c.ClientID
	}
	return ""
}

// RoleOf reports which side of the conversation userID occupies.
func (c Conversation) RoleOf(userID string) (Role, bool) {
	switch userID {
	case c.ClientID:
		return RoleClient, true
	case c.ProfessionalID:
		return RoleProfessional, true
	}
	return "", false
}

func (c Conversation) Participants() []string {
	return []string{c.ClientID, c.ProfessionalID}
}
