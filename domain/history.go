package domain

import "time"

// HistoryEntry is the per-identity denormalized pointer to a conversation.
// It is a projection, not a second source of truth: last activity and the
// peer profile are joined in at read time from the live records.
type HistoryEntry struct {
	ChatID  ChatID `json:"chat_id"`
	PeerUID string `json:"u_id"`
}

// HistorySummary is a history entry enriched for display: live
// conversation activity plus the peer's public profile.
type HistorySummary struct {
	ChatID      ChatID
	LastMessage time.Time
	Peer        Profile
}
