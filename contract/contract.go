//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"artisan-link/domain"
	"artisan-link/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
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

// EventSink receives the events of the rooms a socket joined.
// Consume must not block: a sink that cannot keep up returns an error.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
	// Evict closes the socket behind the sink, its client reconnects and lists again.
	Evict(reason string)
}

type SocketID string

type IRegistry interface {
	Attach(socketID SocketID, userID string, sink EventSink)
	Detach(socketID SocketID) []domain.RoomID
	Join(socketID SocketID, roomID domain.RoomID) bool
	IsMember(socketID SocketID, roomID domain.RoomID) bool
	UserOf(socketID SocketID) (string, bool)
	HasUser(roomID domain.RoomID, userID string) bool
	GetSinksForRoom(roomID domain.RoomID, excludeUserID string) []EventSink
}

// Backbone carries committed events from the hub to the dispatchers of every process.
// Publish must preserve per-room order and must not block for long: it is
// called inside the room critical section.
type Backbone interface {
	Publish(ctx context.Context, e event.DomainEvent) error
	Deliveries() <-chan event.DomainEvent
	Close() error
}
