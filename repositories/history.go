package repositories

import (
	"chatify/domain"
	"chatify/errors"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

type IHistoryRepository interface {
	AppendEntry(uid string, entry domain.HistoryEntry) error
	ListForIdentity(uid string) ([]domain.HistoryEntry, error)
}

// HistoryRepository keeps the per-identity denormalized conversation
// list. The key carries both the owner and the chat id, so writing the
// same entry twice lands on the same key: appendEntry is idempotent by
// construction, no read-before-write dedup needed.
type HistoryRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewHistoryRepository(db *badger.DB, log *slog.Logger) HistoryRepository {
	return HistoryRepository{db: db, log: log}
}

func historyKey(uid string, chatID domain.ChatID) []byte {
	return []byte(fmt.Sprintf("hist:%s:%s", uid, chatID))
}

func historyPrefix(uid string) []byte {
	return []byte(fmt.Sprintf("hist:%s:", uid))
}

func (h HistoryRepository) AppendEntry(uid string, entry domain.HistoryEntry) error {
	record, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = h.db.Update(func(txn *badger.Txn) error {
		return txn.Set(historyKey(uid, entry.ChatID), record)
	})
	if err != nil {
		return fmt.Errorf("%w: append history entry: %v", errors.ErrStorageUnavailable, err)
	}
	return nil
}

// ListForIdentity returns the raw index entries. The coordinator joins
// them against live conversation state before anything user-visible, so
// the index itself is allowed to lag.
func (h HistoryRepository) ListForIdentity(uid string) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	err := h.db.View(func(txn *badger.Txn) error {
		prefix := historyPrefix(uid)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var entry domain.HistoryEntry
				if err := json.Unmarshal(value, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list history: %v", errors.ErrStorageUnavailable, err)
	}
	return entries, nil
}
