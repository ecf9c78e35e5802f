package realtime

import (
	"chatify/domain"
	"chatify/domain/event"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, sink *Sink) []event.DomainEvent {
	t.Helper()
	var events []event.DomainEvent
	for {
		select {
		case e := <-sink.Events:
			events = append(events, e)
		default:
			return events
		}
	}
}

func Test_Broadcast_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	chatID := domain.NewChatID()

	alice := NewSink(slog.Default(), 8)
	bob := NewSink(slog.Default(), 8)
	router.Join("conn-alice", chatID, alice)
	router.Join("conn-bob", chatID, bob)

	message := domain.Message{ChatID: chatID, Text: "hi"}
	delivered := router.Broadcast(context.Background(), chatID,
		event.MessageReceived{Message: message}, "conn-alice")

	req.Equal(1, delivered)
	req.Empty(drain(t, alice))

	received := drain(t, bob)
	req.Len(received, 1)
	req.Equal("hi", received[0].(event.MessageReceived).Message.Text)
}

func Test_Broadcast_Is_Scoped_To_The_Channel(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	chatA := domain.NewChatID()
	chatB := domain.NewChatID()

	inA := NewSink(slog.Default(), 8)
	inB := NewSink(slog.Default(), 8)
	router.Join("conn-a", chatA, inA)
	router.Join("conn-b", chatB, inB)

	delivered := router.Broadcast(context.Background(), chatA, event.PeerJoined{Chat: chatA}, "")

	req.Equal(1, delivered)
	req.Len(drain(t, inA), 1)
	req.Empty(drain(t, inB))
}

func Test_Broadcast_To_Empty_Channel(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())

	delivered := router.Broadcast(context.Background(), domain.NewChatID(),
		event.PeerJoined{}, "")
	req.Zero(delivered)
}

func Test_Leave_Removes_All_Memberships(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	chatA := domain.NewChatID()
	chatB := domain.NewChatID()

	sink := NewSink(slog.Default(), 8)
	router.Join("conn-1", chatA, sink)
	router.Join("conn-1", chatB, sink)

	router.Leave("conn-1")

	req.Zero(router.Broadcast(context.Background(), chatA, event.PeerJoined{Chat: chatA}, ""))
	req.Zero(router.Broadcast(context.Background(), chatB, event.PeerJoined{Chat: chatB}, ""))
}

func Test_Rejoin_After_Leave(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	chatID := domain.NewChatID()

	sink := NewSink(slog.Default(), 8)
	router.Join("conn-1", chatID, sink)
	router.Leave("conn-1")
	router.Join("conn-1", chatID, sink)

	delivered := router.Broadcast(context.Background(), chatID, event.PeerJoined{Chat: chatID}, "")
	req.Equal(1, delivered)
}
