//go:generate go run go.uber.org/mock/mockgen -source=messaging_service.go -destination=../mocks/mock_messaging_service.go -package=mocks

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bell-registry/contract"
	"bell-registry/domain"
	"bell-registry/domain/event"
	"bell-registry/errors"
	"bell-registry/moderation"
	"bell-registry/repositories"
)

type IMessagingService interface {
	SendMessage(ctx context.Context, callerID, conversationID, content string) (domain.Message, error)
	StartConversation(ctx context.Context, callerID, professionalID string) (domain.Conversation, error)
	EndConversation(ctx context.Context, callerID, conversationID string) error
	ListConversations(callerID string) ([]domain.Conversation, error)
	GetMessages(callerID, conversationID string, cursor *string) ([]domain.Message, *string, error)
}

type MessagingService struct {
	log           *slog.Logger
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	users         repositories.IUserRepository
	publisher     contract.IPublisher
	screener      *moderation.Screener
	clock         func() time.Time
}

func NewMessagingService(
	log *slog.Logger,
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	publisher contract.IPublisher,
	screener *moderation.Screener,
) *MessagingService {
	return &MessagingService{
		log:           log,
		conversations: conversations,
		messages:      messages,
		users:         users,
		publisher:     publisher,
		screener:      screener,
		clock:         time.Now,
	}
}

// SendMessage validates the caller's right to write into the conversation,
// persists the message, then broadcasts it to the live connections of both
// participants. Checks run in order and the first failure short-circuits:
//
//  1. the caller must be identified
//  2. the caller must be a participant (non-participants see "not found")
//  3. the conversation must still be active
//  4. a professional may only reply once the client has written
//
// Everything up to persistence is a synchronous failure with no side
// effects. Once the message is stored, fanout is fire-and-forget: a failed
// live delivery never fails the send, the receiver simply catches up on the
// next reload.
func (s *MessagingService) SendMessage(ctx context.Context, callerID, conversationID, content string) (domain.Message, error) {
	if callerID == "" {
		return domain.Message{}, errors.ErrUnauthorized
	}

	conversation, err := s.conversations.FindForParticipant(conversationID, callerID)
	if err != nil {
		return domain.Message{}, err
	}

	if conversation.Status != domain.ConversationActive {
		return domain.Message{}, errors.ErrConversationEnded
	}

	if role, _ := conversation.RoleOf(callerID); role == domain.RoleProfessional {
		clientHasWritten, err := s.messages.HasMessageFrom(conversationID, conversation.ClientID)
		if err != nil {
			return domain.Message{}, fmt.Errorf("reply gate lookup failed: %w", err)
		}
		if !clientHasWritten {
			return domain.Message{}, errors.ErrAwaitingClientMessage
		}
	}

	now := s.clock().UTC()
	message := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       callerID,
		Content:        s.screener.Redact(content),
		CreatedAt:      now,
	}
	if err := s.messages.StoreMessage(message); err != nil {
		return domain.Message{}, fmt.Errorf("storing message failed: %w", err)
	}
	if err := s.conversations.TouchLastMessage(conversationID, now); err != nil {
		// The message itself is durable; a stale activity timestamp only
		// affects inbox ordering.
		s.log.Warn("Touching conversation activity failed",
			"conversation", conversationID, "err", err)
	}

	// Sender included: their other tabs must render the message too.
	s.publisher.Publish(conversation.Participants(), event.NewMessage(message))
	s.publisher.Publish([]string{conversation.OtherParticipant(callerID)},
		event.MessageNotification(message))

	return message, nil
}

// StartConversation opens a conversation between the calling client and a
// professional. Only clients initiate. Calling it again for the same pair
// returns the existing conversation instead of a duplicate.
func (s *MessagingService) StartConversation(ctx context.Context, callerID, professionalID string) (domain.Conversation, error) {
	if callerID == "" {
		return domain.Conversation{}, errors.ErrUnauthorized
	}

	caller, err := s.users.GetUser(callerID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if caller.Role != domain.RoleClient {
		return domain.Conversation{}, errors.ErrProfessionalCannotInitiate
	}

	professional, err := s.users.GetUser(professionalID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if professional.Role != domain.RoleProfessional {
		return domain.Conversation{}, errors.ErrUserNotFound
	}

	if existing, err := s.conversations.FindByParticipants(callerID, professionalID); err == nil {
		return existing, nil
	}

	now := s.clock().UTC()
	conversation := domain.Conversation{
		ID:             uuid.NewString(),
		ClientID:       callerID,
		ProfessionalID: professionalID,
		Status:         domain.ConversationActive,
		CreatedAt:      now,
		LastMessageAt:  now,
	}
	if err := s.conversations.Create(conversation); err != nil {
		return domain.Conversation{}, fmt.Errorf("creating conversation failed: %w", err)
	}
	return conversation, nil
}

// EndConversation marks the conversation ENDED and notifies both
// participants' live connections. Ending an already-ended conversation is a
// no-op.
func (s *MessagingService) EndConversation(ctx context.Context, callerID, conversationID string) error {
	if callerID == "" {
		return errors.ErrUnauthorized
	}

	conversation, err := s.conversations.FindForParticipant(conversationID, callerID)
	if err != nil {
		return err
	}
	if conversation.Status == domain.ConversationEnded {
		return nil
	}

	if err := s.conversations.SetStatus(conversationID, domain.ConversationEnded); err != nil {
		return fmt.Errorf("ending conversation failed: %w", err)
	}

	s.publisher.Publish(conversation.Participants(), event.ConversationEnded(conversationID))
	return nil
}

func (s *MessagingService) ListConversations(callerID string) ([]domain.Conversation, error) {
	if callerID == "" {
		return nil, errors.ErrUnauthorized
	}
	return s.conversations.ListForParticipant(callerID)
}

// GetMessages pages through a conversation's history, scoped to
// participants like every other read.
func (s *MessagingService) GetMessages(callerID, conversationID string, cursor *string) ([]domain.Message, *string, error) {
	if callerID == "" {
		return nil, nil, errors.ErrUnauthorized
	}
	if _, err := s.conversations.FindForParticipant(conversationID, callerID); err != nil {
		return nil, nil, err
	}
	return s.messages.GetMessages(conversationID, cursor)
}
