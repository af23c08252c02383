package sink

import (
	"artisan-link/domain/event"
	"artisan-link/errors"
	"context"
	"log/slog"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Frame is the JSON envelope of every socket message, in both directions.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// SocketSink is the outbound side of one websocket. Frames are queued in a
// bounded buffer and written by a single goroutine. A socket that cannot keep
// up is closed rather than silently skipped, so the client reconnects and lists again.
type SocketSink struct {
	log          *slog.Logger
	conn         *websocket.Conn
	send         chan Frame
	ctx          context.Context
	cancel       context.CancelFunc
	closeOnce    sync.Once
	writeTimeout time.Duration
	pingInterval time.Duration
}

func NewSocketSink(log *slog.Logger, conn *websocket.Conn, bufferSize int, writeTimeout, pingInterval time.Duration) *SocketSink {
	ctx, cancel := context.WithCancel(context.Background())
	s := &SocketSink{
		log:          log,
		conn:         conn,
		send:         make(chan Frame, bufferSize),
		ctx:          ctx,
		cancel:       cancel,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
	go s.writeLoop()
	if pingInterval > 0 {
		go s.keepAliveLoop()
	}
	return s
}

// Consume implements contract.EventSink. It never blocks.
func (s *SocketSink) Consume(_ context.Context, e event.DomainEvent) error {
	return s.Send(Frame{Type: string(e.Type()), Data: e})
}

// Send queues a frame for this socket only, replies and errors go through here.
func (s *SocketSink) Send(frame Frame) error {
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}
	select {
	case s.send <- frame:
		return nil
	default:
		s.log.Warn("Socket buffer full, closing", "type", frame.Type, "buffer", cap(s.send))
		s.Close(websocket.StatusPolicyViolation, "slow consumer")
		return errors.ErrSlowConsumer
	}
}

// Close stops the loops at once, the close handshake runs in the background.
func (s *SocketSink) Close(code websocket.StatusCode, reason string) {
	s.closeOnce.Do(func() {
		s.cancel()
		go func() { _ = s.conn.Close(code, reason) }()
	})
}

// Evict implements contract.EventSink.
func (s *SocketSink) Evict(reason string) {
	s.Close(websocket.StatusTryAgainLater, reason)
}

// Done is closed once the sink stopped writing.
func (s *SocketSink) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *SocketSink) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case frame := <-s.send:
			writeCtx, cancel := context.WithTimeout(s.ctx, s.writeTimeout)
			err := wsjson.Write(writeCtx, s.conn, frame)
			cancel()
			if err != nil {
				if s.ctx.Err() == nil {
					s.log.Debug("Socket write failed, closing", "type", frame.Type, "error", err)
				}
				s.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

func (s *SocketSink) keepAliveLoop() {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(s.ctx, s.writeTimeout)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil && s.ctx.Err() == nil {
				s.log.Debug("Socket ping failed, closing", "error", err)
				s.Close(websocket.StatusGoingAway, "ping timeout")
				return
			}
		}
	}
}
