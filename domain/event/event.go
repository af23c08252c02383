package event

import (
	"artisan-link/domain"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Type is the name of a server to client frame.
type Type string

const (
	MessageReceivedType Type = "receive-message"
	MessageEditedType   Type = "message-edited"
	MessageDeletedType  Type = "message-deleted"
	MessagesReadType    Type = "messages-read"
	UserTypingType      Type = "user-typing"
	UserStopTypingType  Type = "user-stop-typing"
)

// DomainEvent is an authoritative fact broadcast to every socket of a room.
type DomainEvent interface {
	RoomID() domain.RoomID
	Type() Type
}

// Relayed events are not echoed back to the user who caused them.
type Relayed interface {
	Origin() string
}

type MessageReceived struct {
	domain.Message
}

func (e MessageReceived) RoomID() domain.RoomID { return e.Room() }
func (e MessageReceived) Type() Type            { return MessageReceivedType }

type MessageEdited struct {
	domain.Message
}

func (e MessageEdited) RoomID() domain.RoomID { return e.Room() }
func (e MessageEdited) Type() Type            { return MessageEditedType }

// MessageDeleted is a tombstone: it never carries content.
type MessageDeleted struct {
	ID           uuid.UUID `json:"id"`
	ConnectionID uuid.UUID `json:"connectionId"`
}

func (e MessageDeleted) RoomID() domain.RoomID { return domain.RoomOf(e.ConnectionID) }
func (e MessageDeleted) Type() Type            { return MessageDeletedType }

type MessagesRead struct {
	ConnectionID uuid.UUID   `json:"connectionId"`
	ReaderID     string      `json:"readerId"`
	MessageIDs   []uuid.UUID `json:"messageIds"`
}

func (e MessagesRead) RoomID() domain.RoomID { return domain.RoomOf(e.ConnectionID) }
func (e MessagesRead) Type() Type            { return MessagesReadType }

type UserTyping struct {
	ConnectionID uuid.UUID `json:"connectionId"`
	UserID       string    `json:"userId"`
}

func (e UserTyping) RoomID() domain.RoomID { return domain.RoomOf(e.ConnectionID) }
func (e UserTyping) Type() Type            { return UserTypingType }
func (e UserTyping) Origin() string        { return e.UserID }

type UserStopTyping struct {
	ConnectionID uuid.UUID `json:"connectionId"`
	UserID       string    `json:"userId"`
}

func (e UserStopTyping) RoomID() domain.RoomID { return domain.RoomOf(e.ConnectionID) }
func (e UserStopTyping) Type() Type            { return UserStopTypingType }
func (e UserStopTyping) Origin() string        { return e.UserID }

// Envelope is the serialized form of a DomainEvent, used between processes.
type Envelope struct {
	Type Type            `json:"type"`
	Room domain.RoomID   `json:"room"`
	Data json.RawMessage `json:"data"`
}

func Encode(e DomainEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: e.Type(), Room: e.RoomID(), Data: data})
}

func Decode(b []byte) (DomainEvent, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	var (
		evt DomainEvent
		err error
	)
	switch env.Type {
	case MessageReceivedType:
		var e MessageReceived
		err = json.Unmarshal(env.Data, &e)
		evt = e
	case MessageEditedType:
		var e MessageEdited
		err = json.Unmarshal(env.Data, &e)
		evt = e
	case MessageDeletedType:
		var e MessageDeleted
		err = json.Unmarshal(env.Data, &e)
		evt = e
	case MessagesReadType:
		var e MessagesRead
		err = json.Unmarshal(env.Data, &e)
		evt = e
	case UserTypingType:
		var e UserTyping
		err = json.Unmarshal(env.Data, &e)
		evt = e
	case UserStopTypingType:
		var e UserStopTyping
		err = json.Unmarshal(env.Data, &e)
		evt = e
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", env.Type, err)
	}
	return evt, nil
}
