package repositories

import (
	"chatify/domain"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_AppendEntry_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewHistoryRepository(newTestDB(t), slog.Default())
	chatID := domain.NewChatID()
	entry := domain.HistoryEntry{ChatID: chatID, PeerUID: "bob"}

	// Given the same entry written twice
	req.NoError(repository.AppendEntry("alice", entry))
	req.NoError(repository.AppendEntry("alice", entry))

	// Then the index holds it once
	entries, err := repository.ListForIdentity("alice")
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal(entry, entries[0])
}

func Test_ListForIdentity_Is_Scoped(t *testing.T) {
	req := require.New(t)
	repository := NewHistoryRepository(newTestDB(t), slog.Default())
	chatAB := domain.NewChatID()
	chatAC := domain.NewChatID()

	req.NoError(repository.AppendEntry("alice", domain.HistoryEntry{ChatID: chatAB, PeerUID: "bob"}))
	req.NoError(repository.AppendEntry("alice", domain.HistoryEntry{ChatID: chatAC, PeerUID: "clara"}))
	req.NoError(repository.AppendEntry("bob", domain.HistoryEntry{ChatID: chatAB, PeerUID: "alice"}))

	entries, err := repository.ListForIdentity("alice")
	req.NoError(err)
	req.Len(entries, 2)

	entries, err = repository.ListForIdentity("bob")
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal("alice", entries[0].PeerUID)

	entries, err = repository.ListForIdentity("nobody")
	req.NoError(err)
	req.Empty(entries)
}
