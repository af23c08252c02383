package domain

import "github.com/google/uuid"

// The commands below are the conversation intents accepted by the hub,
// whatever transport they arrived on.

type PostMessageCommand struct {
	ConnectionID uuid.UUID
	SenderID     string
	Content      string
}

type EditMessageCommand struct {
	MessageID uuid.UUID
	ActorID   string
	Content   string
}

type DeleteMessageCommand struct {
	MessageID uuid.UUID
	ActorID   string
}

type MarkReadCommand struct {
	ConnectionID uuid.UUID
	ReaderID     string
}
