package repositories

import (
	"chatify/domain"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Append_And_List_Sorted_Messages(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default())
	chatID := domain.NewChatID()
	at := time.Now().UTC()

	// Given messages appended out of chronological order
	texts := []string{"third", "first", "second"}
	offsets := []time.Duration{2 * time.Minute, 0, 1 * time.Minute}
	for i, text := range texts {
		err := repository.Append(domain.Message{
			ID:     uuid.New(),
			ChatID: chatID,
			Sender: domain.Identity{UID: "alice", Username: "alice"},
			Kind:   domain.KindUser,
			Text:   text,
			At:     at.Add(offsets[i]),
		})
		req.NoError(err)
	}

	// When fetching the log
	messages, err := repository.ListByChat(chatID)
	req.NoError(err)

	// Then messages come back in send order
	req.Len(messages, 3)
	req.Equal("first", messages[0].Text)
	req.Equal("second", messages[1].Text)
	req.Equal("third", messages[2].Text)
}

func Test_List_Is_Scoped_To_One_Chat(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default())
	chatA := domain.NewChatID()
	chatB := domain.NewChatID()
	at := time.Now().UTC()

	for i := 0; i < 5; i++ {
		req.NoError(repository.Append(domain.Message{
			ID: uuid.New(), ChatID: chatA, Kind: domain.KindUser,
			Text: fmt.Sprintf("a-%d", i), At: at.Add(time.Duration(i) * time.Second),
		}))
	}
	req.NoError(repository.Append(domain.Message{
		ID: uuid.New(), ChatID: chatB, Kind: domain.KindUser,
		Text: "b-only", At: at,
	}))

	messages, err := repository.ListByChat(chatB)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("b-only", messages[0].Text)
}

func Test_Clear_Wipes_The_Log(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default())
	chatID := domain.NewChatID()
	at := time.Now().UTC()

	for i := 0; i < 3; i++ {
		req.NoError(repository.Append(domain.Message{
			ID: uuid.New(), ChatID: chatID, Kind: domain.KindUser,
			Text: "bye", At: at.Add(time.Duration(i) * time.Second),
		}))
	}

	req.NoError(repository.Clear(chatID))

	messages, err := repository.ListByChat(chatID)
	req.NoError(err)
	req.Empty(messages)

	// A marker appended after the wipe is the only survivor
	marker := domain.NewWelcomeMessage(chatID, at.Add(time.Minute))
	req.NoError(repository.Append(marker))
	messages, err = repository.ListByChat(chatID)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(domain.KindSystem, messages[0].Kind)
}

func Test_Message_Roundtrip_Preserves_Fields(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default())
	chatID := domain.NewChatID()

	original := domain.Message{
		ID:     uuid.New(),
		ChatID: chatID,
		Sender: domain.Identity{UID: "bob", Username: "bob42"},
		Kind:   domain.KindUser,
		Text:   "this message will self destruct in 5 seconds",
		At:     time.Now().UTC().Truncate(time.Nanosecond),
	}
	req.NoError(repository.Append(original))

	messages, err := repository.ListByChat(chatID)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(original, messages[0])
}
