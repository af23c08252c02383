package workers

import (
	"artisan-link/contract"
	"artisan-link/domain/event"
	"context"
	"log/slog"
)

// RoomDispatcher drains the backbone and hands every event to the sockets of its room.
// Events are dispatched one at a time, so per-room order on the backbone is the
// order every socket observes.
type RoomDispatcher struct {
	log      *slog.Logger
	registry contract.IRegistry
	backbone contract.Backbone
}

func NewRoomDispatcher(log *slog.Logger, registry contract.IRegistry, backbone contract.Backbone) *RoomDispatcher {
	return &RoomDispatcher{log: log, registry: registry, backbone: backbone}
}

func (w *RoomDispatcher) Run(ctx context.Context) error {
	deliveries := w.backbone.Deliveries()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping room dispatch")
			return nil
		case evt, ok := <-deliveries:
			if !ok {
				w.log.Info("Backbone closed, stopping room dispatch")
				return nil
			}
			w.Dispatch(ctx, evt)
		}
	}
}

// Dispatch never waits on a socket: sinks buffer the event or fail fast,
// and a failing sink has already scheduled its own eviction.
func (w *RoomDispatcher) Dispatch(ctx context.Context, evt event.DomainEvent) {
	var origin string
	if relayed, ok := evt.(event.Relayed); ok {
		origin = relayed.Origin()
	}
	for _, sink := range w.registry.GetSinksForRoom(evt.RoomID(), origin) {
		if err := sink.Consume(ctx, evt); err != nil {
			w.log.Warn("Event not delivered", "type", evt.Type(), "room", evt.RoomID(), "error", err)
		}
	}
}
