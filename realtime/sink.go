package realtime

import (
	"chatify/domain/event"
	"context"
	"log/slog"
)

// Sink buffers events for one connection. The broadcaster never blocks
// on a slow consumer: when the buffer is full the event is dropped,
// which is acceptable because this path is explicitly not durable.
type Sink struct {
	Events chan event.DomainEvent
	log    *slog.Logger
}

func NewSink(log *slog.Logger, bufferSize int) *Sink {
	return &Sink{
		Events: make(chan event.DomainEvent, bufferSize),
		log:    log,
	}
}

// Consume is called by the router's fanout. The event crosses into the
// connection's writer goroutine through the channel.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Debug("connection buffer full, dropping event", "chat_id", e.ChatID())
		return nil
	}
}
