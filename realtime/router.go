// Package realtime owns the ephemeral channel layer: which connections
// are joined to which conversation, and fanning events out to them.
// Nothing here is durable; a member joining after a broadcast, or
// disconnected at broadcast time, never receives it via this path.
package realtime

import (
	"chatify/contract"
	"chatify/domain"
	"chatify/domain/event"
	"context"
	"log/slog"
	"sync"
)

type Set map[string]struct{}

// Router is process-local shared state. Handlers run on real goroutines,
// so the membership maps are guarded by the RWMutex.
type Router struct {
	mu           sync.RWMutex
	log          *slog.Logger
	sessions     map[string]contract.EventSink         // connID -> sink
	chatMembers  map[domain.ChatID]Set                 // chat -> connIDs
	sessionChats map[string]map[domain.ChatID]struct{} // reverse index for Leave
}

func NewRouter(log *slog.Logger) *Router {
	return &Router{
		log:          log,
		sessions:     make(map[string]contract.EventSink),
		chatMembers:  make(map[domain.ChatID]Set),
		sessionChats: make(map[string]map[domain.ChatID]struct{}),
	}
}

// Join registers the connection's sink and adds it to the conversation's
// channel. A connection may join any number of channels; the sink is
// tracked once.
func (r *Router) Join(connID string, chatID domain.ChatID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[connID] = sink

	if _, ok := r.chatMembers[chatID]; !ok {
		r.chatMembers[chatID] = make(Set)
	}
	r.chatMembers[chatID][connID] = struct{}{}

	if _, ok := r.sessionChats[connID]; !ok {
		r.sessionChats[connID] = make(map[domain.ChatID]struct{})
	}
	r.sessionChats[connID][chatID] = struct{}{}
}

// Leave removes every membership of the connection. Called implicitly on
// disconnect; empty channel sets are removed so the map does not leak.
func (r *Router) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, connID)

	for chatID := range r.sessionChats[connID] {
		if members, ok := r.chatMembers[chatID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(r.chatMembers, chatID)
			}
		}
	}
	delete(r.sessionChats, connID)
}

// Broadcast delivers the event to every connection currently joined to
// the conversation except the excluded one (normally the sender).
// Returns the number of sinks that accepted the event.
func (r *Router) Broadcast(ctx context.Context, chatID domain.ChatID, e event.DomainEvent, excludeConnID string) int {
	sinks := r.sinksFor(chatID, excludeConnID)

	delivered := 0
	for _, sink := range sinks {
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Debug("sink rejected event", "chat_id", chatID, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

func (r *Router) sinksFor(chatID domain.ChatID, excludeConnID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.chatMembers[chatID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for connID := range members {
		if connID == excludeConnID {
			continue
		}
		if sink, exists := r.sessions[connID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}
