package runtime

import (
	"artisan-link/contract"
	"artisan-link/domain"
	"sync"
)

type Set[K comparable] map[K]struct{}

type session struct {
	userID string
	sink   contract.EventSink
	rooms  Set[domain.RoomID]
}

// Registry is the in-memory membership table of the process: which socket
// belongs to which user and which sockets joined which room.
// It never authorizes anything, the hub does that before calling Join.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[contract.SocketID]*session
	roomMembers map[domain.RoomID]Set[contract.SocketID]
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[contract.SocketID]*session),
		roomMembers: make(map[domain.RoomID]Set[contract.SocketID]),
	}
}

// Attach records a freshly registered socket. Attaching the same socket
// again replaces its user and sink but keeps its rooms.
func (r *Registry) Attach(socketID contract.SocketID, userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[socketID]; ok {
		s.userID = userID
		s.sink = sink
		return
	}
	r.sessions[socketID] = &session{userID: userID, sink: sink, rooms: make(Set[domain.RoomID])}
}

// Detach forgets the socket and returns the rooms it had joined.
// Rooms left without members are removed entirely.
func (r *Registry) Detach(socketID contract.SocketID) []domain.RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[socketID]
	if !ok {
		return nil
	}
	delete(r.sessions, socketID)

	rooms := make([]domain.RoomID, 0, len(s.rooms))
	for roomID := range s.rooms {
		rooms = append(rooms, roomID)
		if members, ok := r.roomMembers[roomID]; ok {
			delete(members, socketID)
			if len(members) == 0 {
				delete(r.roomMembers, roomID)
			}
		}
	}
	return rooms
}

// Join adds an attached socket to a room. It reports false for unknown sockets.
func (r *Registry) Join(socketID contract.SocketID, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[socketID]
	if !ok {
		return false
	}
	s.rooms[roomID] = struct{}{}
	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set[contract.SocketID])
	}
	r.roomMembers[roomID][socketID] = struct{}{}
	return true
}

func (r *Registry) IsMember(socketID contract.SocketID, roomID domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.roomMembers[roomID][socketID]
	return ok
}

func (r *Registry) UserOf(socketID contract.SocketID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[socketID]
	if !ok {
		return "", false
	}
	return s.userID, true
}

// HasUser reports whether any socket of the user is still in the room.
func (r *Registry) HasUser(roomID domain.RoomID, userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for socketID := range r.roomMembers[roomID] {
		if s, ok := r.sessions[socketID]; ok && s.userID == userID {
			return true
		}
	}
	return false
}

// GetSinksForRoom resolves the room members into their sinks, skipping every
// socket owned by excludeUserID. An empty excludeUserID keeps everyone.
// Returns nil if the room doesn't exist or has no members.
func (r *Registry) GetSinksForRoom(roomID domain.RoomID, excludeUserID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for socketID := range members {
		s, exists := r.sessions[socketID]
		if !exists || (excludeUserID != "" && s.userID == excludeUserID) {
			continue
		}
		activeSinks = append(activeSinks, s.sink)
	}
	return activeSinks
}

// Stats reports how many sockets are attached and how many rooms have members.
func (r *Registry) Stats() (sockets, rooms int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), len(r.roomMembers)
}
