// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes machine-generated markers from user messages.
// The numeric values are part of the wire contract.
type Kind int

const (
	KindSystem Kind = iota
	KindUser
)

// Message represents an immutable chat event. The ordering key is At
// (server-observed send time); ID breaks same-instant ties.
type Message struct {
	ID     uuid.UUID
	ChatID ChatID
	Sender Identity // zero value for system messages
	Kind   Kind
	Text   string
	At     time.Time
}

const welcomeText = "happy chatting"

// NewWelcomeMessage builds the system message seeded into a freshly
// created conversation.
func NewWelcomeMessage(chatID ChatID, at time.Time) Message {
	return Message{
		ID:     uuid.New(),
		ChatID: chatID,
		Kind:   KindSystem,
		Text:   welcomeText,
		At:     at,
	}
}
