// Package services orchestrates conversation lifecycle and message
// delivery on top of the router and the repositories. Operations are
// atomic from the caller's point of view even though internally
// multi-step; the deliberate exception is documented on SendMessage.
package services

import (
	"chatify/contract"
	"chatify/domain"
	"chatify/domain/event"
	"chatify/errors"
	"chatify/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// StartResult mirrors the start-or-find response: when Found is true the
// conversation already existed and nothing was written.
type StartResult struct {
	ChatID       domain.ChatID
	Found        bool
	LastActivity time.Time
}

type ICoordinator interface {
	StartConversation(ctx context.Context, a, b domain.Identity) (StartResult, error)
	SendMessage(ctx context.Context, connID string, message domain.Message) error
	ClearConversation(ctx context.Context, connID string, chatID domain.ChatID, replacements []domain.Message) error
	JoinChat(ctx context.Context, connID string, chatID domain.ChatID, sink contract.EventSink)
	Disconnect(connID string)
	Messages(chatID domain.ChatID) ([]domain.Message, error)
	History(uid string) ([]domain.HistorySummary, error)
}

type Coordinator struct {
	log           *slog.Logger
	router        contract.IRouter
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	history       repositories.IHistoryRepository
	users         repositories.IUserRepository
}

func NewCoordinator(log *slog.Logger, router contract.IRouter,
	conversations repositories.IConversationRepository, messages repositories.IMessageRepository,
	history repositories.IHistoryRepository, users repositories.IUserRepository) *Coordinator {
	return &Coordinator{
		log:           log,
		router:        router,
		conversations: conversations,
		messages:      messages,
		history:       history,
		users:         users,
	}
}

// StartConversation finds or creates the one conversation between the
// pair. Repeat calls are idempotent: once found, no further writes. On
// creation it seeds the welcome message and both history entries.
//
// The canonical race is both participants calling start nearly
// simultaneously: the registry's conditional insert plus a single retry
// of the read path resolves it deterministically, and ErrConflict never
// escapes this method.
func (c *Coordinator) StartConversation(_ context.Context, a, b domain.Identity) (StartResult, error) {
	conv, err := c.conversations.Find(a.UID, b.UID)
	switch {
	case err == nil:
		return StartResult{ChatID: conv.ChatID, Found: true, LastActivity: conv.LastActivity}, nil
	case !stderrors.Is(err, errors.ErrNotFound):
		return StartResult{}, err
	}

	now := time.Now().UTC()
	conv, err = c.conversations.Create(a.UID, b.UID, now)
	if stderrors.Is(err, errors.ErrConflict) {
		// Lost the race to the other participant; their insert is
		// durable, so one re-read settles it.
		conv, err = c.conversations.Find(a.UID, b.UID)
		if err != nil {
			return StartResult{}, err
		}
		return StartResult{ChatID: conv.ChatID, Found: true, LastActivity: conv.LastActivity}, nil
	}
	if err != nil {
		return StartResult{}, err
	}

	welcome := domain.NewWelcomeMessage(conv.ChatID, now)
	if err := c.messages.Append(welcome); err != nil {
		// The conversation row exists without its seed message. It stays
		// usable; the caller retries the whole action.
		return StartResult{}, err
	}
	if err := c.history.AppendEntry(a.UID, domain.HistoryEntry{ChatID: conv.ChatID, PeerUID: b.UID}); err != nil {
		return StartResult{}, err
	}
	if err := c.history.AppendEntry(b.UID, domain.HistoryEntry{ChatID: conv.ChatID, PeerUID: a.UID}); err != nil {
		// Asymmetric state: one participant can see the conversation in
		// their history, the other cannot until a repair. Reported, not
		// rolled back.
		c.log.Error("history entry missing after conversation create",
			"chat_id", conv.ChatID, "u_id", b.UID, "error", err)
		return StartResult{}, err
	}

	return StartResult{ChatID: conv.ChatID, Found: false, LastActivity: welcome.At}, nil
}

// SendMessage broadcasts to connected peers first, then persists.
// Realtime delivery is prioritized over persistence latency: steps after
// the broadcast are not rolled back if they fail. A delivered-but-
// unpersisted message is a known, accepted failure mode — the error is
// surfaced to the sender, who may resend.
func (c *Coordinator) SendMessage(ctx context.Context, connID string, message domain.Message) error {
	c.router.Broadcast(ctx, message.ChatID, event.MessageReceived{Message: message}, connID)

	if err := c.messages.Append(message); err != nil {
		c.log.Error("message delivered but not persisted",
			"chat_id", message.ChatID, "error", err)
		return err
	}
	if err := c.conversations.Touch(message.ChatID, message.At); err != nil {
		c.log.Error("failed to update conversation activity",
			"chat_id", message.ChatID, "error", err)
		return err
	}
	return nil
}

// ClearConversation wipes the durable log and replaces it with the given
// markers. Online peers get the replacements broadcast up front so they
// can update optimistically.
func (c *Coordinator) ClearConversation(ctx context.Context, connID string, chatID domain.ChatID, replacements []domain.Message) error {
	c.router.Broadcast(ctx, chatID, event.ChatCleared{Chat: chatID, Messages: replacements}, connID)

	if err := c.messages.Clear(chatID); err != nil {
		return err
	}
	for _, replacement := range replacements {
		if err := c.messages.Append(replacement); err != nil {
			return fmt.Errorf("reseed after clear: %w", err)
		}
	}
	return nil
}

// JoinChat registers the connection on the conversation's channel and
// notifies the members already there. Best effort: offline peers learn
// about the conversation from their history, not from this event.
func (c *Coordinator) JoinChat(ctx context.Context, connID string, chatID domain.ChatID, sink contract.EventSink) {
	c.router.Join(connID, chatID, sink)
	c.router.Broadcast(ctx, chatID, event.PeerJoined{Chat: chatID}, connID)
}

// Disconnect drops all channel memberships of the connection.
func (c *Coordinator) Disconnect(connID string) {
	c.router.Leave(connID)
}

// Messages returns the ordered durable log of a conversation.
func (c *Coordinator) Messages(chatID domain.ChatID) ([]domain.Message, error) {
	return c.messages.ListByChat(chatID)
}

// History joins the identity's denormalized index against live
// conversation state and the peers' public profiles, most recent
// activity first. Entries pointing at records that no longer resolve are
// skipped and logged: the index is allowed to lag, the join is not
// allowed to lie.
func (c *Coordinator) History(uid string) ([]domain.HistorySummary, error) {
	entries, err := c.history.ListForIdentity(uid)
	if err != nil {
		return nil, err
	}

	var summaries []domain.HistorySummary
	for _, entry := range entries {
		conv, err := c.conversations.Get(entry.ChatID)
		if err != nil {
			c.log.Warn("history entry without conversation, skipping",
				"u_id", uid, "chat_id", entry.ChatID, "error", err)
			continue
		}
		peer, err := c.users.GetByUID(entry.PeerUID)
		if err != nil {
			c.log.Warn("history entry without peer profile, skipping",
				"u_id", uid, "peer", entry.PeerUID, "error", err)
			continue
		}
		summaries = append(summaries, domain.HistorySummary{
			ChatID:      entry.ChatID,
			LastMessage: conv.LastActivity,
			Peer:        peer.Public(),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.After(summaries[j].LastMessage)
	})
	return summaries, nil
}
