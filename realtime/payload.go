package realtime

import (
	"chatify/domain"
	"chatify/domain/event"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Event names are the contract surface of the channel protocol. The
// misspelling of "recieve-message" is historical and kept deliberately:
// deployed clients listen for it.
const (
	EventJoinChat    = "join-chat"
	EventSendMessage = "send-message"
	EventClearChat   = "clear-chat"

	EventNewChat        = "new-chat"
	EventReceiveMessage = "recieve-message"
	EventChatCleared    = "chat-cleared"
	EventError          = "error"
)

// Frame is one websocket message in either direction.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// MessagePayload is the wire shape of a message. Time travels as unix
// milliseconds.
type MessagePayload struct {
	ID       string `json:"id,omitempty"`
	ChatID   string `json:"chat_id"`
	UID      string `json:"u_id,omitempty"`
	Username string `json:"username,omitempty"`
	Kind     int    `json:"type"`
	Text     string `json:"text"`
	Time     int64  `json:"time"`
}

// ClearChatPayload is the inbound clear-chat frame: a dated marker plus
// the "chat cleared" message that together replace the wiped history.
// The field names are the deployed client contract.
type ClearChatPayload struct {
	DateUpdateMessage MessagePayload `json:"dateUpdateMessage"`
	Message           MessagePayload `json:"message"`
}

// Replacements returns the two markers in the order they are reseeded
// and broadcast: date marker first, cleared notice second.
func (p ClearChatPayload) Replacements() []MessagePayload {
	return []MessagePayload{p.DateUpdateMessage, p.Message}
}

func ToDomainMessage(p MessagePayload) domain.Message {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		id = uuid.New()
	}
	return domain.Message{
		ID:     id,
		ChatID: domain.ChatID(p.ChatID),
		Sender: domain.Identity{UID: p.UID, Username: p.Username},
		Kind:   domain.Kind(p.Kind),
		Text:   p.Text,
		At:     time.UnixMilli(p.Time).UTC(),
	}
}

func FromDomainMessage(m domain.Message) MessagePayload {
	return MessagePayload{
		ID:       m.ID.String(),
		ChatID:   string(m.ChatID),
		UID:      m.Sender.UID,
		Username: m.Sender.Username,
		Kind:     int(m.Kind),
		Text:     m.Text,
		Time:     m.At.UnixMilli(),
	}
}

// encodeEvent turns a domain event into its outbound frame. Unknown
// events are skipped rather than leaked to clients.
func encodeEvent(e event.DomainEvent) (Frame, bool) {
	switch evt := e.(type) {
	case event.PeerJoined:
		return mustFrame(EventNewChat, struct{}{}), true
	case event.MessageReceived:
		return mustFrame(EventReceiveMessage, FromDomainMessage(evt.Message)), true
	case event.ChatCleared:
		payloads := lo.Map(evt.Messages, func(m domain.Message, _ int) MessagePayload {
			return FromDomainMessage(m)
		})
		return mustFrame(EventChatCleared, payloads), true
	case event.DeliveryFailed:
		return mustFrame(EventError, map[string]string{"message": evt.Reason}), true
	default:
		return Frame{}, false
	}
}

func mustFrame(name string, data any) Frame {
	raw, err := json.Marshal(data)
	if err != nil {
		// All payload types above are marshal-safe; this cannot fire at
		// runtime with well-formed events.
		panic(err)
	}
	return Frame{Event: name, Data: raw}
}
