//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"bell-registry/domain"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessages(conversationID string, cursor *string) ([]domain.Message, *string, error)
	HasMessageFrom(conversationID, senderID string) (bool, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{conversation_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the message id as a collision disconnector if
//     two messages arrive at the same nanosecond.
//
// A secondary "sender:{conversation_id}:{sender_id}" marker is written in the
// same transaction so the professional reply gate can answer "has the client
// ever written here" with a point lookup instead of a value scan.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.ConversationID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	senderKey := fmt.Sprintf("sender:%s:%s", message.ConversationID, message.SenderID)

	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(senderKey), []byte{1})
	})
}

// GetMessages retrieves messages for a conversation using a prefix scan.
// Thanks to the padded timestamp in the key, messages are naturally sorted by
// time; iteration is reversed so the newest page comes first. It stops
// collecting once the configured limitMessages is reached and returns an
// opaque cursor for the next page, or nil when the page is the last one.
func (m MessageRepository) GetMessages(conversationID string, cursor *string) ([]domain.Message, *string, error) {
	var rawMessages [][]byte
	var lastKey string
	var more bool
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", conversationID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible timestamp, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(rawMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				more = true
				break
			}
			item := it.Item()
			// Memorize the cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				rawMessages = append(rawMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var messages []domain.Message
	for _, raw := range rawMessages {
		var message domain.Message
		if err = json.Unmarshal(raw, &message); err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	if !more {
		// Iterator ran out before the limit: this was the last page.
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

// HasMessageFrom reports whether senderID has ever written in the
// conversation. Backed by the sender marker key, it stays O(1) regardless of
// conversation length.
func (m MessageRepository) HasMessageFrom(conversationID, senderID string) (bool, error) {
	found := false
	err := m.db.View(func(txn *badger.Txn) error {
		key := fmt.Sprintf("sender:%s:%s", conversationID, senderID)
		_, err := txn.Get([]byte(key))
		switch err {
		case nil:
			found = true
			return nil
		case badger.ErrKeyNotFound:
			return nil
		default:
			return err
		}
	})
	return found, err
}
