//go:generate go run go.uber.org/mock/mockgen -source=conversation_service.go -destination=../mocks/mock_conversation_service.go -package=mocks
package services

import (
	"artisan-link/domain"
	"artisan-link/errors"
	"artisan-link/repositories"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type IConversationService interface {
	Authorize(connectionID uuid.UUID, actorID string) (domain.Connection, error)
	Send(cmd domain.PostMessageCommand) (domain.Message, error)
	Edit(cmd domain.EditMessageCommand) (domain.Message, error)
	Delete(cmd domain.DeleteMessageCommand) (domain.Message, error)
	List(connectionID uuid.UUID, actorID string) ([]domain.Message, error)
	MarkRead(cmd domain.MarkReadCommand) ([]uuid.UUID, error)
	GetMessage(id uuid.UUID) (domain.Message, error)
}

// ConversationService is the only writer of messages. Every operation first
// passes the access gate of the message's connection.
type ConversationService struct {
	log         *slog.Logger
	connections repositories.IConnectionRepository
	messages    repositories.IMessageRepository
	now         func() time.Time
}

func NewConversationService(log *slog.Logger, connections repositories.IConnectionRepository,
	messages repositories.IMessageRepository) *ConversationService {
	return &ConversationService{
		log:         log,
		connections: connections,
		messages:    messages,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Authorize loads the connection and applies the access gate for the actor.
func (s *ConversationService) Authorize(connectionID uuid.UUID, actorID string) (domain.Connection, error) {
	conn, err := s.connections.Get(connectionID)
	if err != nil {
		return domain.Connection{}, err
	}
	if !domain.CanMessage(conn, actorID) {
		return domain.Connection{}, fmt.Errorf("%w: %s cannot message on connection %s (%s)",
			errors.ErrForbidden, actorID, connectionID, conn.Status)
	}
	return conn, nil
}

func (s *ConversationService) Send(cmd domain.PostMessageCommand) (domain.Message, error) {
	if _, err := s.Authorize(cmd.ConnectionID, cmd.SenderID); err != nil {
		return domain.Message{}, err
	}
	content, err := domain.ValidateContent(cmd.Content)
	if err != nil {
		return domain.Message{}, err
	}
	message, err := s.messages.StoreMessage(domain.Message{
		ID:           uuid.New(),
		ConnectionID: cmd.ConnectionID,
		SenderID:     cmd.SenderID,
		Content:      content,
		CreatedAt:    s.now(),
		ReadBy:       []string{},
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("store message: %w", err)
	}
	s.log.Debug("Message stored", "message_id", message.ID, "connection_id", message.ConnectionID)
	return message, nil
}

func (s *ConversationService) Edit(cmd domain.EditMessageCommand) (domain.Message, error) {
	return s.messages.UpdateMessage(cmd.MessageID, func(m *domain.Message) error {
		if err := s.checkOwner(*m, cmd.ActorID); err != nil {
			return err
		}
		content, err := domain.ValidateContent(cmd.Content)
		if err != nil {
			return err
		}
		m.Edit(content, s.now())
		return nil
	})
}

// Delete hard-removes a message and returns what was removed.
func (s *ConversationService) Delete(cmd domain.DeleteMessageCommand) (domain.Message, error) {
	return s.messages.DeleteMessage(cmd.MessageID, func(m domain.Message) error {
		return s.checkOwner(m, cmd.ActorID)
	})
}

func (s *ConversationService) checkOwner(m domain.Message, actorID string) error {
	if _, err := s.Authorize(m.ConnectionID, actorID); err != nil {
		return err
	}
	if m.SenderID != actorID {
		return fmt.Errorf("%w: message %s belongs to another sender", errors.ErrForbidden, m.ID)
	}
	return nil
}

// List returns the conversation in (createdAt, sequence) order.
func (s *ConversationService) List(connectionID uuid.UUID, actorID string) ([]domain.Message, error) {
	if _, err := s.Authorize(connectionID, actorID); err != nil {
		return nil, err
	}
	return s.messages.GetMessages(connectionID)
}

func (s *ConversationService) MarkRead(cmd domain.MarkReadCommand) ([]uuid.UUID, error) {
	if _, err := s.Authorize(cmd.ConnectionID, cmd.ReaderID); err != nil {
		return nil, err
	}
	return s.messages.MarkRead(cmd.ConnectionID, cmd.ReaderID)
}

func (s *ConversationService) GetMessage(id uuid.UUID) (domain.Message, error) {
	return s.messages.GetMessage(id)
}
