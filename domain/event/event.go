package event

import (
	"chatify/domain"
)

// DomainEvent is anything fanned out to the connections joined to a
// conversation's channel. Delivery is at-most-once per connected member
// and never durable; the message store alone owns durability.
type DomainEvent interface {
	ChatID() domain.ChatID
}

// PeerJoined notifies current channel members that another connection
// joined the conversation.
type PeerJoined struct {
	Chat domain.ChatID
}

func (e PeerJoined) ChatID() domain.ChatID { return e.Chat }

// MessageReceived carries a freshly sent message to connected peers.
type MessageReceived struct {
	Message domain.Message
}

func (e MessageReceived) ChatID() domain.ChatID { return e.Message.ChatID }

// ChatCleared tells connected peers the history was wiped and replaced,
// so they can update optimistically before re-reading the store.
type ChatCleared struct {
	Chat     domain.ChatID
	Messages []domain.Message
}

func (e ChatCleared) ChatID() domain.ChatID { return e.Chat }

// DeliveryFailed reports a persistence failure back to the sender's own
// connection after the realtime broadcast already fired.
type DeliveryFailed struct {
	Chat   domain.ChatID
	Reason string
}

func (e DeliveryFailed) ChatID() domain.ChatID { return e.Chat }
