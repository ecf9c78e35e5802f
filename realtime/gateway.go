package realtime

import (
	"chatify/domain"
	"chatify/domain/event"
	"chatify/services"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// Gateway upgrades HTTP requests to websocket connections and speaks the
// channel event protocol. Each connection gets one reader goroutine
// (events of a single sender are processed in receipt order) and one
// writer goroutine fed by the connection's sink.
type Gateway struct {
	log          *slog.Logger
	coordinator  services.ICoordinator
	upgrader     websocket.Upgrader
	bufferSize   int
	writeTimeout time.Duration
}

func NewGateway(log *slog.Logger, coordinator services.ICoordinator,
	bufferSize int, writeTimeout time.Duration) *Gateway {
	return &Gateway{
		log:         log,
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		bufferSize:   bufferSize,
		writeTimeout: writeTimeout,
	}
}

// Handle serves one websocket session until the client disconnects.
// Membership is discarded on disconnect.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	connID := uuid.NewString()
	sink := NewSink(g.log, g.bufferSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go g.writeLoop(ctx, conn, sink)
	g.readLoop(ctx, connID, conn, sink)

	g.coordinator.Disconnect(connID)
	_ = conn.Close()
	g.log.Debug("disconnected", "conn_id", connID)
}

func (g *Gateway) readLoop(ctx context.Context, connID string, conn *websocket.Conn, sink *Sink) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Warn("websocket read failed", "conn_id", connID, "error", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			g.log.Warn("malformed frame, ignoring", "conn_id", connID, "error", err)
			continue
		}

		switch frame.Event {
		case EventJoinChat:
			g.handleJoin(ctx, connID, frame.Data, sink)
		case EventSendMessage:
			g.handleSend(ctx, connID, frame.Data, sink)
		case EventClearChat:
			g.handleClear(ctx, connID, frame.Data, sink)
		default:
			g.log.Debug("unknown event, ignoring", "conn_id", connID, "event", frame.Event)
		}
	}
}

func (g *Gateway) handleJoin(ctx context.Context, connID string, data json.RawMessage, sink *Sink) {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err != nil || chatID == "" {
		g.log.Warn("join-chat without chat id", "conn_id", connID)
		return
	}
	g.coordinator.JoinChat(ctx, connID, domain.ChatID(chatID), sink)
}

func (g *Gateway) handleSend(ctx context.Context, connID string, data json.RawMessage, sink *Sink) {
	var payload MessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatID == "" {
		g.log.Warn("malformed send-message payload", "conn_id", connID)
		return
	}

	message := ToDomainMessage(payload)
	// The ordering key is the server-observed send time, not whatever
	// clock the client carries.
	message.ID = uuid.New()
	message.At = time.Now().UTC()
	message.Kind = domain.KindUser

	if err := g.coordinator.SendMessage(ctx, connID, message); err != nil {
		g.reportFailure(ctx, sink, message.ChatID, err)
	}
}

func (g *Gateway) handleClear(ctx context.Context, connID string, data json.RawMessage, sink *Sink) {
	var payload ClearChatPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Message.ChatID == "" {
		g.log.Warn("malformed clear-chat payload", "conn_id", connID)
		return
	}

	chatID := domain.ChatID(payload.Message.ChatID)
	// Unstamped markers get increasing times so the reseed keeps their
	// broadcast order in the store.
	now := time.Now().UTC()
	replacements := lo.Map(payload.Replacements(), func(p MessagePayload, i int) domain.Message {
		replacement := ToDomainMessage(p)
		if p.Time == 0 {
			replacement.At = now.Add(time.Duration(i))
		}
		return replacement
	})

	if err := g.coordinator.ClearConversation(ctx, connID, chatID, replacements); err != nil {
		g.reportFailure(ctx, sink, chatID, err)
	}
}

// reportFailure pushes the persistence error back through the sender's
// own sink: peers already got the broadcast, only the sender needs to
// know the durable write is missing.
func (g *Gateway) reportFailure(ctx context.Context, sink *Sink, chatID domain.ChatID, err error) {
	failure := event.DeliveryFailed{
		Chat:   chatID,
		Reason: fmt.Sprintf("message not persisted: %v", err),
	}
	if consumeErr := sink.Consume(ctx, failure); consumeErr != nil {
		g.log.Warn("failed to report delivery failure", "chat_id", chatID, "error", consumeErr)
	}
}

func (g *Gateway) writeLoop(ctx context.Context, conn *websocket.Conn, sink *Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sink.Events:
			frame, ok := encodeEvent(evt)
			if !ok {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(g.writeTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				g.log.Warn("websocket write failed", "error", err)
				return
			}
		}
	}
}
