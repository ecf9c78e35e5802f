package repositories

import (
	"chatify/domain"
	"chatify/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// touchRetries bounds the commit-conflict retries of Touch. The update
// is a monotonic merge, so replaying it is safe.
const touchRetries = 3

type IConversationRepository interface {
	Find(uidA, uidB string) (domain.Conversation, error)
	Create(uidA, uidB string, at time.Time) (domain.Conversation, error)
	Get(chatID domain.ChatID) (domain.Conversation, error)
	Touch(chatID domain.ChatID, at time.Time) error
}

// ConversationRepository owns the one-conversation-per-pair invariant.
// Creation is a conditional insert on the normalized pair key executed
// inside a single transaction, never read-then-write across calls, so
// two simultaneous "start conversation" requests cannot both succeed.
type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) ConversationRepository {
	return ConversationRepository{db: db, log: log}
}

func pairKey(uidA, uidB string) []byte {
	return []byte("chat:pair:" + domain.PairKey(uidA, uidB))
}

func chatKey(chatID domain.ChatID) []byte {
	return []byte("chat:id:" + string(chatID))
}

// Find looks the pair up by its normalized key. No side effects.
func (c ConversationRepository) Find(uidA, uidB string) (domain.Conversation, error) {
	var conv domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(uidA, uidB))
		if err != nil {
			return err
		}
		var chatID []byte
		if chatID, err = item.ValueCopy(nil); err != nil {
			return err
		}
		return readConversation(txn, domain.ChatID(chatID), &conv)
	})
	return conv, c.mapLookupErr(err, "find conversation")
}

// Create inserts a conversation for the pair with a freshly generated
// chat id. A concurrent create for the same normalized pair surfaces as
// ErrConflict, which the coordinator resolves with one bounded retry of
// the read path.
func (c ConversationRepository) Create(uidA, uidB string, at time.Time) (domain.Conversation, error) {
	conv := domain.Conversation{
		ChatID:       domain.NewChatID(),
		Participants: domain.NormalizePair(uidA, uidB),
		LastActivity: at.UTC(),
	}
	record, err := json.Marshal(conv)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		key := pairKey(uidA, uidB)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrConflict
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, []byte(conv.ChatID)); err != nil {
			return err
		}
		return txn.Set(chatKey(conv.ChatID), record)
	})
	switch {
	case err == nil:
		return conv, nil
	case stderrors.Is(err, errors.ErrConflict), stderrors.Is(err, badger.ErrConflict):
		// Badger's own commit conflict means the same thing here: the
		// other writer's insert is already durable.
		return domain.Conversation{}, errors.ErrConflict
	default:
		return domain.Conversation{}, fmt.Errorf("%w: create conversation: %v", errors.ErrStorageUnavailable, err)
	}
}

// Get loads a conversation by id.
func (c ConversationRepository) Get(chatID domain.ChatID) (domain.Conversation, error) {
	var conv domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		return readConversation(txn, chatID, &conv)
	})
	return conv, c.mapLookupErr(err, "get conversation")
}

// Touch moves last_activity forward. Out-of-order touches are ignored,
// not overwritten, so the summary stays monotonic regardless of how
// writes interleave.
func (c ConversationRepository) Touch(chatID domain.ChatID, at time.Time) error {
	var err error
	for attempt := 0; attempt < touchRetries; attempt++ {
		err = c.db.Update(func(txn *badger.Txn) error {
			var conv domain.Conversation
			if err := readConversation(txn, chatID, &conv); err != nil {
				return err
			}
			if !at.After(conv.LastActivity) {
				return nil
			}
			conv.LastActivity = at.UTC()
			record, err := json.Marshal(conv)
			if err != nil {
				return err
			}
			return txn.Set(chatKey(chatID), record)
		})
		if !stderrors.Is(err, badger.ErrConflict) {
			break
		}
	}
	return c.mapLookupErr(err, "touch conversation")
}

func readConversation(txn *badger.Txn, chatID domain.ChatID, conv *domain.Conversation) error {
	item, err := txn.Get(chatKey(chatID))
	if err != nil {
		return err
	}
	return item.Value(func(value []byte) error {
		return json.Unmarshal(value, conv)
	})
}

func (c ConversationRepository) mapLookupErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return errors.ErrNotFound
	default:
		return fmt.Errorf("%w: %s: %v", errors.ErrStorageUnavailable, op, err)
	}
}
