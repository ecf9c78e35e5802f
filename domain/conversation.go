package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ChatID string

// Conversation is the durable record of a chat session between exactly
// two identities. For any unordered pair of participants at most one
// Conversation exists; the normalized pair is the dedup key.
type Conversation struct {
	ChatID       ChatID    `json:"chat_id"`
	Participants [2]string `json:"users"` // sorted u_ids
	LastActivity time.Time `json:"last_activity"`
}

// Peer returns the other participant's u_id, or "" if uid is not a member.
func (c Conversation) Peer(uid string) string {
	switch uid {
	case c.Participants[0]:
		return c.Participants[1]
	case c.Participants[1]:
		return c.Participants[0]
	}
	return ""
}

// NormalizePair makes a two-identity key order independent.
// Both lookup and insert paths must go through it.
func NormalizePair(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// PairKey renders a normalized pair as a storage key fragment.
func PairKey(a, b string) string {
	pair := NormalizePair(a, b)
	return strings.Join(pair[:], "|")
}

// NewChatID generates a fresh conversation id. Random and
// collision-improbable, never reused.
func NewChatID() ChatID {
	return ChatID(uuid.NewString())
}
