package repositories

import (
	"chatify/domain"
	"chatify/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	Append(message domain.Message) error
	ListByChat(chatID domain.ChatID) ([]domain.Message, error)
	Clear(chatID domain.ChatID) error
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// diskMessage is the stored shape of a message. Timestamps are kept in
// nanoseconds so the key and the record agree on ordering.
type diskMessage struct {
	ID       string `json:"id"`
	ChatID   string `json:"chat_id"`
	UID      string `json:"u_id,omitempty"`
	Username string `json:"username,omitempty"`
	Kind     int    `json:"type"`
	Text     string `json:"text"`
	At       int64  `json:"time"`
}

// messageKey formats "msg:{chat_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.ChatID, m.At.UnixNano(), m.ID))
}

func chatPrefix(chatID domain.ChatID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", chatID))
}

// Append inserts a message. Messages are never mutated afterwards; the
// only delete path is Clear.
func (m MessageRepository) Append(message domain.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	bytes, err := json.Marshal(fromDomainMessage(message))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: append message: %v", errors.ErrStorageUnavailable, err)
	}
	return nil
}

// ListByChat returns the full message log for a conversation, ascending
// by timestamp. Chat histories are expected bounded, so the whole log is
// materialized rather than paginated.
func (m MessageRepository) ListByChat(chatID domain.ChatID) ([]domain.Message, error) {
	var records []diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := chatPrefix(chatID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var record diskMessage
				if err := json.Unmarshal(value, &record); err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", errors.ErrStorageUnavailable, err)
	}
	return toDomainMessages(records)
}

// Clear deletes every message of the conversation. The caller is
// responsible for inserting any replacement markers afterwards; the
// store only knows delete.
func (m MessageRepository) Clear(chatID domain.ChatID) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		prefix := chatPrefix(chatID)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)

		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: clear messages: %v", errors.ErrStorageUnavailable, err)
	}
	return nil
}

func fromDomainMessage(m domain.Message) diskMessage {
	return diskMessage{
		ID:       m.ID.String(),
		ChatID:   string(m.ChatID),
		UID:      m.Sender.UID,
		Username: m.Sender.Username,
		Kind:     int(m.Kind),
		Text:     m.Text,
		At:       m.At.UnixNano(),
	}
}

func toDomainMessages(records []diskMessage) ([]domain.Message, error) {
	var firstErr error
	messages := lo.Map(records, func(record diskMessage, _ int) domain.Message {
		message, err := toDomainMessage(record)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return message
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return messages, nil
}

func toDomainMessage(record diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:     parsedID,
		ChatID: domain.ChatID(record.ChatID),
		Sender: domain.Identity{UID: record.UID, Username: record.Username},
		Kind:   domain.Kind(record.Kind),
		Text:   record.Text,
		At:     time.Unix(0, record.At).UTC(),
	}, nil
}
