// Package domain contains core concepts of the NGO/artisan collaboration system.
// This file defines Message entities and the content rules they obey.
package domain

import (
	"artisan-link/errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const MaxContentLength = 1000

var validate = validator.New()

type contentRule struct {
	Content string `validate:"required,max=1000"`
}

// ValidateContent trims the content and checks it holds 1 to MaxContentLength characters.
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if err := validate.Struct(contentRule{Content: trimmed}); err != nil {
		return "", fmt.Errorf("%w: content must hold between 1 and %d characters", errors.ErrValidation, MaxContentLength)
	}
	return trimmed, nil
}

// Message is one persisted entry of a connection's conversation.
type Message struct {
	ID           uuid.UUID  `json:"id"`
	ConnectionID uuid.UUID  `json:"connectionId"`
	SenderID     string     `json:"senderId"`
	Content      string     `json:"content"`
	CreatedAt    time.Time  `json:"createdAt"`
	IsEdited     bool       `json:"isEdited"`
	EditedAt     *time.Time `json:"editedAt"`
	ReadBy       []string   `json:"readBy"`
	Sequence     uint64     `json:"sequence"`
}

func (m Message) Room() RoomID {
	return RoomOf(m.ConnectionID)
}

// Before orders messages by (createdAt, sequence).
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.Sequence < other.Sequence
}

// Edit replaces the content and flags the message as edited.
func (m *Message) Edit(content string, now time.Time) {
	m.Content = content
	m.IsEdited = true
	m.EditedAt = &now
}

// MarkReadBy adds the reader to readBy and reports whether anything changed.
// Authors never read their own messages.
func (m *Message) MarkReadBy(readerID string) bool {
	if readerID == m.SenderID || lo.Contains(m.ReadBy, readerID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, readerID)
	return true
}
