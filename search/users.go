// Package search maintains the full-text side index used for username
// lookups. Badger stays the source of truth; this index only answers
// "which uids match this prefix".
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
)

// defaultLimit caps a search when no explicit limit is configured.
const defaultLimit = 25

type IUserIndex interface {
	Index(uid, username string) error
	FindByPrefix(ctx context.Context, prefix string) ([]string, error)
}

type UserIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
	limit  int
}

func NewUserIndex(writer *bluge.Writer, log *slog.Logger, limit int) *UserIndex {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &UserIndex{writer: writer, log: log, limit: limit}
}

// Index registers or re-registers a profile under its uid. Update on the
// same uid replaces the previous document, which covers the edit path
// where a username changes.
func (i *UserIndex) Index(uid, username string) error {
	doc := bluge.NewDocument(uid).
		AddField(bluge.NewKeywordField("username", username).StoreValue().Sortable())
	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index username: %w", err)
	}
	return nil
}

// FindByPrefix returns the uids whose username starts with prefix,
// ordered by username ascending.
func (i *UserIndex) FindByPrefix(ctx context.Context, prefix string) ([]string, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("failed to close index reader", "error", err)
		}
	}()

	query := bluge.NewPrefixQuery(prefix).SetField("username")
	request := bluge.NewTopNSearch(i.limit, query).SortBy([]string{"username"})

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search usernames: %w", err)
	}

	var uids []string
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate matches: %w", err)
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				uids = append(uids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("read match: %w", err)
		}
	}
	return uids, nil
}
