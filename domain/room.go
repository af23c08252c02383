package domain

import "github.com/google/uuid"

// RoomID identifies the broadcast group of one connection's conversation.
// There is exactly one room per connection and it shares the connection id.
type RoomID string

func RoomOf(connectionID uuid.UUID) RoomID {
	return RoomID(connectionID.String())
}

func (r RoomID) ConnectionID() (uuid.UUID, error) {
	return uuid.Parse(string(r))
}
