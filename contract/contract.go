package contract

import (
	"chatify/domain"
	"chatify/domain/event"
	"context"
	"reflect"
)

// EventSink receives realtime events for one connection. Consume must
// never block the broadcaster: implementations buffer or drop.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRouter maps connections to conversation channels and fans events out
// to everyone currently joined. Membership is process-local and
// ephemeral; it is discarded on disconnect.
type IRouter interface {
	Join(connID string, chatID domain.ChatID, sink EventSink)
	Leave(connID string)
	Broadcast(ctx context.Context, chatID domain.ChatID, e event.DomainEvent, excludeConnID string) int
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision during worker lifecycle events,
// avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
