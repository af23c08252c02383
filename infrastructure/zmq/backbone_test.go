package zmq

import (
	"artisan-link/domain"
	"artisan-link/domain/event"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestBackbone(t *testing.T, peers ...string) *Backbone {
	t.Helper()
	b, err := NewBackbone(slog.Default(), Options{
		PubEndpoint: "tcp://127.0.0.1:*",
		Peers:       peers,
		BufferSize:  256,
		PollTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackbone_Loops_Back_Local_Events(t *testing.T) {
	req := require.New(t)
	b := newTestBackbone(t)
	evt := event.UserTyping{ConnectionID: uuid.New(), UserID: "ngo-1"}

	req.NoError(b.Publish(context.Background(), evt))

	select {
	case got := <-b.Deliveries():
		req.Equal(evt, got)
	case <-time.After(time.Second):
		req.Fail("local event not delivered")
	}
}

func TestBackbone_Delivers_Peer_Events(t *testing.T) {
	req := require.New(t)
	publisher := newTestBackbone(t)
	subscriber := newTestBackbone(t, publisher.Endpoint())

	// The publisher's own loopback is not under test
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			select {
			case <-publisher.Deliveries():
			case <-ctx.Done():
				return
			}
		}
	}()

	evt := event.MessageReceived{Message: domain.Message{
		ID:           uuid.New(),
		ConnectionID: uuid.New(),
		SenderID:     "artisan-1",
		Content:      "across processes",
		CreatedAt:    time.Now().UTC(),
		ReadBy:       []string{},
	}}

	// PUB/SUB drops what is sent before the subscription is up, so keep publishing
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case got := <-subscriber.Deliveries():
			req.Equal(evt.Type(), got.Type())
			req.Equal(evt.RoomID(), got.RoomID())
			req.Equal(evt.ID, got.(event.MessageReceived).ID)
			return
		case <-ticker.C:
			req.NoError(publisher.Publish(ctx, evt))
		case <-deadline:
			req.Fail("peer event not delivered")
			return
		}
	}
}

func TestBackbone_Publish_After_Close(t *testing.T) {
	b := newTestBackbone(t)
	require.NoError(t, b.Close())
	require.Error(t, b.Publish(context.Background(), event.UserStopTyping{ConnectionID: uuid.New(), UserID: "ngo-1"}))
}
