package realtime

import (
	"chatify/domain"
	"chatify/domain/event"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Message_Event_Keeps_Historical_Name(t *testing.T) {
	req := require.New(t)
	message := domain.Message{
		ID:     uuid.New(),
		ChatID: "chat-1",
		Sender: domain.Identity{UID: "u-1", Username: "alice"},
		Kind:   domain.KindUser,
		Text:   "hello",
		At:     time.Now().UTC(),
	}

	frame, ok := encodeEvent(event.MessageReceived{Message: message})
	req.True(ok)
	req.Equal("recieve-message", frame.Event)

	var payload MessagePayload
	req.NoError(json.Unmarshal(frame.Data, &payload))
	req.Equal("chat-1", payload.ChatID)
	req.Equal("u-1", payload.UID)
	req.Equal(1, payload.Kind)
	req.Equal(message.At.UnixMilli(), payload.Time)
}

func Test_Wire_Time_Is_Milliseconds(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	message := domain.Message{ID: uuid.New(), ChatID: "chat-1", At: at}

	payload := FromDomainMessage(message)
	req.Equal(at.UnixMilli(), payload.Time)

	back := ToDomainMessage(payload)
	req.True(back.At.Equal(at))
}

func Test_System_Kind_Roundtrip(t *testing.T) {
	req := require.New(t)
	welcome := domain.NewWelcomeMessage("chat-1", time.Now().UTC())

	payload := FromDomainMessage(welcome)
	req.Zero(payload.Kind)

	back := ToDomainMessage(payload)
	req.Equal(domain.KindSystem, back.Kind)
}

func Test_ClearChat_Decodes_Deployed_Client_Shape(t *testing.T) {
	req := require.New(t)

	// Deployed clients send the two named markers
	raw := []byte(`{
		"dateUpdateMessage": {"chat_id": "chat-1", "type": 0, "text": "24 Aug 2026", "time": 0},
		"message": {"chat_id": "chat-1", "type": 0, "text": "history cleared", "time": 0}
	}`)

	var payload ClearChatPayload
	req.NoError(json.Unmarshal(raw, &payload))
	req.Equal("chat-1", payload.Message.ChatID)

	replacements := payload.Replacements()
	req.Len(replacements, 2)
	req.Equal("24 Aug 2026", replacements[0].Text)
	req.Equal("history cleared", replacements[1].Text)
}

func Test_ChatCleared_Frame_Carries_Replacements(t *testing.T) {
	req := require.New(t)
	cleared := event.ChatCleared{
		Chat: "chat-1",
		Messages: []domain.Message{
			{ID: uuid.New(), ChatID: "chat-1", Kind: domain.KindSystem, Text: "history cleared", At: time.Now().UTC()},
		},
	}

	frame, ok := encodeEvent(cleared)
	req.True(ok)
	req.Equal(EventChatCleared, frame.Event)

	var payloads []MessagePayload
	req.NoError(json.Unmarshal(frame.Data, &payloads))
	req.Len(payloads, 1)
	req.Equal("history cleared", payloads[0].Text)
}
