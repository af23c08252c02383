package workers

import (
	"artisan-link/contract"
	"artisan-link/domain"
	"artisan-link/domain/event"
	"artisan-link/errors"
	"artisan-link/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRoomDispatcher_Dispatch_To_Room_Sinks(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	mockBackbone := mocks.NewMockBackbone(ctrl)
	laptop := mocks.NewMockEventSink(ctrl)
	phone := mocks.NewMockEventSink(ctrl)

	connectionID := uuid.New()
	evt := event.MessageReceived{Message: domain.Message{ID: uuid.New(), ConnectionID: connectionID, SenderID: "ngo-1"}}

	// Given two sockets joined the room
	mockRegistry.EXPECT().
		GetSinksForRoom(domain.RoomOf(connectionID), "").
		Return([]contract.EventSink{laptop, phone}).
		Times(1)
	// Then both receive the message, even its author
	laptop.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)
	phone.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	NewRoomDispatcher(log, mockRegistry, mockBackbone).Dispatch(context.Background(), evt)
}

func TestRoomDispatcher_Relayed_Events_Skip_Origin(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	mockBackbone := mocks.NewMockBackbone(ctrl)
	other := mocks.NewMockEventSink(ctrl)

	connectionID := uuid.New()
	evt := event.UserTyping{ConnectionID: connectionID, UserID: "artisan-1"}

	// The typist is excluded from the lookup
	mockRegistry.EXPECT().
		GetSinksForRoom(domain.RoomOf(connectionID), "artisan-1").
		Return([]contract.EventSink{other}).
		Times(1)
	other.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	NewRoomDispatcher(slog.Default(), mockRegistry, mockBackbone).Dispatch(context.Background(), evt)
}

func TestRoomDispatcher_Slow_Sink_Does_Not_Stop_Others(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	mockBackbone := mocks.NewMockBackbone(ctrl)
	slow := mocks.NewMockEventSink(ctrl)
	fast := mocks.NewMockEventSink(ctrl)

	evt := event.MessageDeleted{ID: uuid.New(), ConnectionID: uuid.New()}

	mockRegistry.EXPECT().
		GetSinksForRoom(gomock.Any(), "").
		Return([]contract.EventSink{slow, fast})
	// Given the first sink overflows
	slow.EXPECT().Consume(gomock.Any(), evt).Return(errors.ErrSlowConsumer)
	// Then the second still receives the event
	fast.EXPECT().Consume(gomock.Any(), evt).Return(nil)

	NewRoomDispatcher(slog.Default(), mockRegistry, mockBackbone).Dispatch(context.Background(), evt)
}

func TestRoomDispatcher_Run_Drains_Backbone(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	mockBackbone := mocks.NewMockBackbone(ctrl)
	sink := mocks.NewMockEventSink(ctrl)

	deliveries := make(chan event.DomainEvent, 2)
	connectionID := uuid.New()
	first := event.MessageReceived{Message: domain.Message{ID: uuid.New(), ConnectionID: connectionID}}
	second := event.MessageDeleted{ID: first.ID, ConnectionID: connectionID}
	deliveries <- first
	deliveries <- second

	mockBackbone.EXPECT().Deliveries().Return((<-chan event.DomainEvent)(deliveries))
	mockRegistry.EXPECT().GetSinksForRoom(domain.RoomOf(connectionID), "").
		Return([]contract.EventSink{sink}).Times(2)

	received := make(chan event.DomainEvent, 2)
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e event.DomainEvent) error {
			received <- e
			return nil
		}).Times(2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- NewRoomDispatcher(slog.Default(), mockRegistry, mockBackbone).Run(ctx) }()

	// Then the events reach the socket in backbone order
	for _, want := range []event.DomainEvent{first, second} {
		select {
		case got := <-received:
			req.Equal(want, got)
		case <-time.After(time.Second):
			req.Fail("event not dispatched in time")
		}
	}

	cancel()
	req.NoError(<-done)
}
