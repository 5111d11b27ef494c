//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"bell-registry/domain"
	"bell-registry/errors"
)

type IConversationRepository interface {
	Create(conversation domain.Conversation) error
	// FindForParticipant resolves a conversation only when callerID is one
	// of its two participants. A nonexistent conversation and a foreign one
	// both return ErrConversationNotFound.
	FindForParticipant(conversationID, callerID string) (domain.Conversation, error)
	// FindByParticipants answers "do these two already talk", used to make
	// conversation creation idempotent.
	FindByParticipants(clientID, professionalID string) (domain.Conversation, error)
	ListForParticipant(userID string) ([]domain.Conversation, error)
	SetStatus(conversationID string, status domain.ConversationStatus) error
	TouchLastMessage(conversationID string, at time.Time) error
}

type ConversationRepository struct {
	db *badger.DB
}

func NewConversationRepository(db *badger.DB) ConversationRepository {
	return ConversationRepository{db: db}
}

// Key layout:
//
//	conv:{id}                      -> conversation JSON
//	convmember:{user_id}:{id}      -> empty (per-participant index)
//	convpair:{client}:{pro}        -> conversation id (idempotent creation)
func convKey(id string) []byte { return []byte("conv:" + id) }

func memberKey(userID, conversationID string) []byte {
	return []byte(fmt.Sprintf("convmember:%s:%s", userID, conversationID))
}

func pairKey(clientID, professionalID string) []byte {
	return []byte(fmt.Sprintf("convpair:%s:%s", clientID, professionalID))
}

func (r ConversationRepository) Create(conversation domain.Conversation) error {
	bytes, err := json.Marshal(conversation)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(convKey(conversation.ID), bytes); err != nil {
			return err
		}
		if err := txn.Set(memberKey(conversation.ClientID, conversation.ID), nil); err != nil {
			return err
		}
		if err := txn.Set(memberKey(conversation.ProfessionalID, conversation.ID), nil); err != nil {
			return err
		}
		return txn.Set(pairKey(conversation.ClientID, conversation.ProfessionalID),
			[]byte(conversation.ID))
	})
}

func (r ConversationRepository) FindForParticipant(conversationID, callerID string) (domain.Conversation, error) {
	conversation, err := r.get(conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conversation.HasParticipant(callerID) {
		// Same answer as "does not exist": existence must not leak.
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	return conversation, nil
}

func (r ConversationRepository) FindByParticipants(clientID, professionalID string) (domain.Conversation, error) {
	var conversationID string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(clientID, professionalID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			conversationID = string(value)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return r.get(conversationID)
}

// ListForParticipant returns the caller's conversations ordered by most
// recent activity first, the order the inbox renders them in.
func (r ConversationRepository) ListForParticipant(userID string) ([]domain.Conversation, error) {
	var ids []string
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("convmember:%s:", userID))
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var conversations []domain.Conversation
	for _, id := range ids {
		conversation, err := r.get(id)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})
	return conversations, nil
}

func (r ConversationRepository) SetStatus(conversationID string, status domain.ConversationStatus) error {
	return r.update(conversationID, func(conversation *domain.Conversation) {
		conversation.Status = status
	})
}

func (r ConversationRepository) TouchLastMessage(conversationID string, at time.Time) error {
	return r.update(conversationID, func(conversation *domain.Conversation) {
		conversation.LastMessageAt = at
	})
}

func (r ConversationRepository) get(conversationID string) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(convKey(conversationID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &conversation)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}

func (r ConversationRepository) update(conversationID string, mutate func(*domain.Conversation)) error {
	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(convKey(conversationID))
		if err == badger.ErrKeyNotFound {
			return errors.ErrConversationNotFound
		}
		if err != nil {
			return err
		}
		var conversation domain.Conversation
		if err := item.Value(func(value []byte) error {
			return json.Unmarshal(value, &conversation)
		}); err != nil {
			return err
		}
		mutate(&conversation)
		bytes, err := json.Marshal(conversation)
		if err != nil {
			return err
		}
		return txn.Set(convKey(conversationID), bytes)
	})
}
