package zmq

import (
	"artisan-link/domain/event"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	zmq4 "github.com/pebbe/zmq4"
)

const defaultPollTimeout = 250 * time.Millisecond

type Options struct {
	// PubEndpoint is where this process publishes, e.g. tcp://*:5560.
	PubEndpoint string
	// Peers are the PUB endpoints of the other processes, e.g. tcp://10.0.0.2:5560.
	Peers       []string
	BufferSize  int
	PollTimeout time.Duration
}

// Backbone fans committed events out over ZeroMQ PUB/SUB, one topic per room.
// Local events are looped back straight to Deliveries, peer events arrive
// through the SUB socket. Order is preserved per publisher.
type Backbone struct {
	log         *slog.Logger
	zctx        *zmq4.Context
	pubMu       sync.Mutex
	pub         *zmq4.Socket
	sub         *zmq4.Socket
	poller      *zmq4.Poller
	deliveries  chan event.DomainEvent
	pollTimeout time.Duration
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
}

func NewBackbone(log *slog.Logger, opts Options) (*Backbone, error) {
	zctx, err := zmq4.NewContext()
	if err != nil {
		return nil, err
	}
	b := &Backbone{
		log:         log,
		zctx:        zctx,
		deliveries:  make(chan event.DomainEvent, opts.BufferSize),
		pollTimeout: opts.PollTimeout,
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	if b.pollTimeout <= 0 {
		b.pollTimeout = defaultPollTimeout
	}
	if err = b.open(opts); err != nil {
		b.destroy()
		return nil, err
	}
	go b.receiveLoop()
	return b, nil
}

func (b *Backbone) open(opts Options) error {
	var err error
	if b.pub, err = b.zctx.NewSocket(zmq4.PUB); err != nil {
		return fmt.Errorf("create PUB socket: %w", err)
	}
	if err = b.pub.SetLinger(0); err != nil {
		return err
	}
	if err = b.pub.Bind(opts.PubEndpoint); err != nil {
		return fmt.Errorf("bind %s: %w", opts.PubEndpoint, err)
	}
	if b.sub, err = b.zctx.NewSocket(zmq4.SUB); err != nil {
		return fmt.Errorf("create SUB socket: %w", err)
	}
	if err = b.sub.SetLinger(0); err != nil {
		return err
	}
	if err = b.sub.SetSubscribe(""); err != nil {
		return err
	}
	for _, peer := range opts.Peers {
		if err = b.sub.Connect(peer); err != nil {
			return fmt.Errorf("connect to peer %s: %w", peer, err)
		}
	}
	b.poller = zmq4.NewPoller()
	b.poller.Add(b.sub, zmq4.POLLIN)
	b.log.Info("ZeroMQ backbone ready", "pub", opts.PubEndpoint, "peers", opts.Peers)
	return nil
}

// Endpoint returns the resolved PUB endpoint, useful when binding on port *.
func (b *Backbone) Endpoint() string {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	endpoint, _ := b.pub.GetLastEndpoint()
	return endpoint
}

// Publish delivers locally then sends [room, envelope] to the peers.
// A PUB socket never blocks: peers that are too slow lose events.
func (b *Backbone) Publish(ctx context.Context, e event.DomainEvent) error {
	payload, err := event.Encode(e)
	if err != nil {
		return err
	}
	if err = b.deliver(ctx, e); err != nil {
		return err
	}

	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	if _, err = b.pub.SendMessage(string(e.RoomID()), payload); err != nil {
		return fmt.Errorf("publish on backbone: %w", err)
	}
	return nil
}

func (b *Backbone) Deliveries() <-chan event.DomainEvent {
	return b.deliveries
}

// Close stops the receive loop and releases the sockets.
func (b *Backbone) Close() error {
	b.closeOnce.Do(func() {
		close(b.done)
		<-b.stopped
		b.destroy()
	})
	return nil
}

func (b *Backbone) deliver(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-b.done:
		return context.Canceled
	default:
	}
	select {
	case b.deliveries <- e:
		return nil
	case <-b.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// receiveLoop owns the SUB socket: ZeroMQ sockets must stay on one goroutine.
func (b *Backbone) receiveLoop() {
	defer close(b.stopped)
	for {
		select {
		case <-b.done:
			return
		default:
		}
		polled, err := b.poller.Poll(b.pollTimeout)
		if err != nil {
			b.log.Error("Backbone polling failed", "error", err)
			continue
		}
		if len(polled) == 0 {
			continue
		}
		msg, err := b.sub.RecvMessageBytes(zmq4.DONTWAIT)
		if err != nil {
			b.log.Debug("Backbone receive failed", "error", err)
			continue
		}
		if len(msg) != 2 {
			b.log.Warn("Malformed backbone message", "parts", len(msg))
			continue
		}
		evt, err := event.Decode(msg[1])
		if err != nil {
			b.log.Warn("Undecodable backbone event", "topic", string(msg[0]), "error", err)
			continue
		}
		if err = b.deliver(context.Background(), evt); err != nil {
			return
		}
	}
}

func (b *Backbone) destroy() {
	if b.sub != nil {
		_ = b.sub.Close()
	}
	if b.pub != nil {
		_ = b.pub.Close()
	}
	_ = b.zctx.Term()
}
