package runtime

import (
	"artisan-link/contract"
	"artisan-link/domain"
	"artisan-link/domain/event"
	"artisan-link/errors"
	"artisan-link/services"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Hub routes realtime commands through the conversation service and hands the
// committed results to the backbone. It never writes to sockets itself: the room
// dispatcher does, outside the per-room critical section.
type Hub struct {
	log            *slog.Logger
	registry       contract.IRegistry
	backbone       contract.Backbone
	presence       *PresenceTracker
	conversations  services.IConversationService
	rooms          *KeyedMutex[domain.RoomID]
	publishTimeout time.Duration
}

func NewHub(log *slog.Logger, registry contract.IRegistry, backbone contract.Backbone,
	presence *PresenceTracker, conversations services.IConversationService, publishTimeout time.Duration) *Hub {
	return &Hub{
		log:            log,
		registry:       registry,
		backbone:       backbone,
		presence:       presence,
		conversations:  conversations,
		rooms:          NewKeyedMutex[domain.RoomID](),
		publishTimeout: publishTimeout,
	}
}

// Connect attaches an authenticated socket. The user comes from the token, never from the client.
func (h *Hub) Connect(socketID contract.SocketID, userID string, sink contract.EventSink) {
	h.registry.Attach(socketID, userID, sink)
	h.log.Debug("Socket connected", "socket_id", socketID, "user_id", userID)
}

// Disconnect stops every future broadcast to the socket. The typing state of
// a room is cleared only once the user has no other socket left in it.
func (h *Hub) Disconnect(socketID contract.SocketID) {
	userID, ok := h.registry.UserOf(socketID)
	if !ok {
		return
	}
	rooms := h.registry.Detach(socketID)
	left := lo.Filter(rooms, func(roomID domain.RoomID, _ int) bool {
		return !h.registry.HasUser(roomID, userID)
	})
	h.presence.Clear(userID, left)
	h.log.Debug("Socket disconnected", "socket_id", socketID, "user_id", userID, "rooms", len(rooms))
}

// Register confirms the identity a client announces. It must match the token.
func (h *Hub) Register(socketID contract.SocketID, claimedUserID string) error {
	userID, ok := h.registry.UserOf(socketID)
	if !ok {
		return fmt.Errorf("%w: socket %s", errors.ErrNotFound, socketID)
	}
	if claimedUserID != userID {
		return fmt.Errorf("%w: socket authenticated as another user", errors.ErrForbidden)
	}
	return nil
}

// Join adds the socket to the room of a connection once the access gate passes.
// Refused joins are not an error for the client, the socket just stays out.
func (h *Hub) Join(socketID contract.SocketID, connectionID uuid.UUID) bool {
	userID, ok := h.registry.UserOf(socketID)
	if !ok {
		return false
	}
	conn, err := h.conversations.Authorize(connectionID, userID)
	if err != nil {
		h.log.Debug("Join refused", "socket_id", socketID, "user_id", userID, "connection_id", connectionID, "error", err)
		return false
	}
	return h.registry.Join(socketID, conn.Room())
}

func (h *Hub) SendMessage(ctx context.Context, cmd domain.PostMessageCommand) (domain.Message, error) {
	unlock := h.rooms.Lock(domain.RoomOf(cmd.ConnectionID))
	defer unlock()

	message, err := h.conversations.Send(cmd)
	if err != nil {
		return domain.Message{}, err
	}
	h.publish(ctx, event.MessageReceived{Message: message})
	return message, nil
}

func (h *Hub) EditMessage(ctx context.Context, cmd domain.EditMessageCommand) (domain.Message, error) {
	current, err := h.conversations.GetMessage(cmd.MessageID)
	if err != nil {
		return domain.Message{}, err
	}
	unlock := h.rooms.Lock(current.Room())
	defer unlock()

	message, err := h.conversations.Edit(cmd)
	if err != nil {
		return domain.Message{}, err
	}
	h.publish(ctx, event.MessageEdited{Message: message})
	return message, nil
}

func (h *Hub) DeleteMessage(ctx context.Context, cmd domain.DeleteMessageCommand) (domain.Message, error) {
	current, err := h.conversations.GetMessage(cmd.MessageID)
	if err != nil {
		return domain.Message{}, err
	}
	unlock := h.rooms.Lock(current.Room())
	defer unlock()

	deleted, err := h.conversations.Delete(cmd)
	if err != nil {
		return domain.Message{}, err
	}
	h.publish(ctx, event.MessageDeleted{ID: deleted.ID, ConnectionID: deleted.ConnectionID})
	return deleted, nil
}

// MarkRead broadcasts messages-read only when at least one message changed.
func (h *Hub) MarkRead(ctx context.Context, cmd domain.MarkReadCommand) ([]uuid.UUID, error) {
	unlock := h.rooms.Lock(domain.RoomOf(cmd.ConnectionID))
	defer unlock()

	ids, err := h.conversations.MarkRead(cmd)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		h.publish(ctx, event.MessagesRead{ConnectionID: cmd.ConnectionID, ReaderID: cmd.ReaderID, MessageIDs: ids})
	}
	return ids, nil
}

// Typing is only accepted from sockets that joined the room.
func (h *Hub) Typing(socketID contract.SocketID, connectionID uuid.UUID) bool {
	userID, ok := h.memberUser(socketID, connectionID)
	if !ok {
		return false
	}
	h.presence.Typing(connectionID, userID)
	return true
}

func (h *Hub) StopTyping(socketID contract.SocketID, connectionID uuid.UUID) bool {
	userID, ok := h.memberUser(socketID, connectionID)
	if !ok {
		return false
	}
	h.presence.StopTyping(connectionID, userID)
	return true
}

func (h *Hub) memberUser(socketID contract.SocketID, connectionID uuid.UUID) (string, bool) {
	if !h.registry.IsMember(socketID, domain.RoomOf(connectionID)) {
		return "", false
	}
	return h.registry.UserOf(socketID)
}

// publish runs inside the room critical section. The write is already committed,
// so the caller going away does not cancel the enqueue. When the enqueue fails
// the local sockets of the room are evicted, their clients reconnect and list
// again instead of silently missing the event.
func (h *Hub) publish(ctx context.Context, e event.DomainEvent) {
	ctx = context.WithoutCancel(ctx)
	if h.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.publishTimeout)
		defer cancel()
	}
	if err := h.backbone.Publish(ctx, e); err != nil {
		sinks := h.registry.GetSinksForRoom(e.RoomID(), "")
		h.log.Error("Committed event not broadcast, evicting room", "type", e.Type(), "room", e.RoomID(),
			"sockets", len(sinks), "error", err)
		for _, sink := range sinks {
			sink.Evict("missed update")
		}
	}
}
