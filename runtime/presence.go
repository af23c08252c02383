package runtime

import (
	"artisan-link/contract"
	"artisan-link/domain"
	"artisan-link/domain/event"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTypingDebounce = time.Second
	presenceOutboxSize    = 256
)

type presenceKey struct {
	connectionID uuid.UUID
	userID       string
}

type typingWindow struct {
	timer      *time.Timer
	generation uint64
}

// PresenceTracker keeps the ephemeral typing state of every (connection, user).
// Nothing is persisted: a restart simply forgets who was typing.
// Transitions are queued under mu and published in that order by a single
// goroutine, so a slow backbone never holds mu.
type PresenceTracker struct {
	mu             sync.Mutex
	log            *slog.Logger
	backbone       contract.Backbone
	debounce       time.Duration
	publishTimeout time.Duration
	windows        map[presenceKey]*typingWindow
	generation     uint64
	outbox         chan event.DomainEvent
	closed         bool
	done           chan struct{}
}

func NewPresenceTracker(log *slog.Logger, backbone contract.Backbone, debounce, publishTimeout time.Duration) *PresenceTracker {
	if debounce <= 0 {
		debounce = DefaultTypingDebounce
	}
	p := &PresenceTracker{
		log:            log,
		backbone:       backbone,
		debounce:       debounce,
		publishTimeout: publishTimeout,
		windows:        make(map[presenceKey]*typingWindow),
		outbox:         make(chan event.DomainEvent, presenceOutboxSize),
		done:           make(chan struct{}),
	}
	go p.publishLoop()
	return p
}

// Typing opens or extends the typing window of the user.
// Only the idle to typing transition is relayed, it reports whether it happened.
func (p *PresenceTracker) Typing(connectionID uuid.UUID, userID string) bool {
	key := presenceKey{connectionID: connectionID, userID: userID}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	generation := p.generation
	expire := func() { p.expire(key, generation) }

	if w, ok := p.windows[key]; ok {
		w.timer.Stop()
		w.generation = generation
		w.timer = time.AfterFunc(p.debounce, expire)
		return false
	}
	p.windows[key] = &typingWindow{
		timer:      time.AfterFunc(p.debounce, expire),
		generation: generation,
	}
	p.enqueue(event.UserTyping{ConnectionID: connectionID, UserID: userID})
	return true
}

// StopTyping closes the typing window right away. It reports false when the user was idle.
func (p *PresenceTracker) StopTyping(connectionID uuid.UUID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop(presenceKey{connectionID: connectionID, userID: userID})
}

// Clear stops the typing windows of the user in the given rooms, typically the
// rooms a disconnected socket had joined.
func (p *PresenceTracker) Clear(userID string, rooms []domain.RoomID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, roomID := range rooms {
		connectionID, err := roomID.ConnectionID()
		if err != nil {
			continue
		}
		p.stop(presenceKey{connectionID: connectionID, userID: userID})
	}
}

// IsTyping is a snapshot, the window may close right after.
func (p *PresenceTracker) IsTyping(connectionID uuid.UUID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.windows[presenceKey{connectionID: connectionID, userID: userID}]
	return ok
}

// Close cancels every pending expiry without relaying anything, then waits
// for the transitions already queued to be published.
func (p *PresenceTracker) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for key, w := range p.windows {
		w.timer.Stop()
		delete(p.windows, key)
	}
	close(p.outbox)
	p.mu.Unlock()
	<-p.done
}

func (p *PresenceTracker) expire(key presenceKey, generation uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A newer keystroke re-armed the window after this timer fired
	w, ok := p.windows[key]
	if !ok || w.generation != generation {
		return
	}
	p.log.Debug("Typing window expired", "connection_id", key.connectionID, "user_id", key.userID)
	p.stop(key)
}

// stop must be called with mu held.
func (p *PresenceTracker) stop(key presenceKey) bool {
	w, ok := p.windows[key]
	if !ok {
		return false
	}
	w.timer.Stop()
	delete(p.windows, key)
	p.enqueue(event.UserStopTyping{ConnectionID: key.connectionID, UserID: key.userID})
	return true
}

// enqueue must be called with mu held. It never blocks: presence is best
// effort and a full outbox drops the transition.
func (p *PresenceTracker) enqueue(e event.DomainEvent) {
	if p.closed {
		return
	}
	select {
	case p.outbox <- e:
	default:
		p.log.Warn("Presence outbox full, event dropped", "type", e.Type(), "room", e.RoomID())
	}
}

func (p *PresenceTracker) publishLoop() {
	defer close(p.done)
	for e := range p.outbox {
		p.publish(e)
	}
}

func (p *PresenceTracker) publish(e event.DomainEvent) {
	ctx := context.Background()
	if p.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.publishTimeout)
		defer cancel()
	}
	if err := p.backbone.Publish(ctx, e); err != nil {
		p.log.Warn("Presence event lost", "type", e.Type(), "room", e.RoomID(), "error", err)
	}
}
