// Package domain contains core concepts of the NGO/artisan collaboration system.
// This file defines the Connection state machine.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"artisan-link/errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	ConnectionStatusRejected ConnectionStatus = "rejected"
)

func ParseConnectionStatus(s string) (ConnectionStatus, error) {
	switch status := ConnectionStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case ConnectionStatusPending, ConnectionStatusAccepted, ConnectionStatusRejected:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", errors.ErrValidation, s)
	}
}

// Connection is the directed request/accept/reject relationship between one NGO and one artisan.
type Connection struct {
	ID        uuid.UUID        `json:"id"`
	NGOID     string           `json:"ngoId"`
	ArtisanID string           `json:"artisanId"`
	Status    ConnectionStatus `json:"status"`
	Message   string           `json:"message,omitempty"`
	Purpose   string           `json:"purpose,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func NewConnection(ngoID, artisanID, message, purpose string, now time.Time) Connection {
	return Connection{
		ID:        uuid.New(),
		NGOID:     ngoID,
		ArtisanID: artisanID,
		Status:    ConnectionStatusPending,
		Message:   message,
		Purpose:   purpose,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c Connection) Room() RoomID {
	return RoomOf(c.ID)
}

// RoleOf tells which side of the connection the actor stands on.
// Anyone who is neither the NGO nor the artisan is reported as RoleUser.
func (c Connection) RoleOf(actorID string) Role {
	switch actorID {
	case "":
		return RoleUser
	case c.NGOID:
		return RoleNGO
	case c.ArtisanID:
		return RoleArtisan
	default:
		return RoleUser
	}
}

// IsParty reports whether the actor is one of the two sides.
func (c Connection) IsParty(actorID string) bool {
	return c.RoleOf(actorID) != RoleUser
}

// Counterpart returns the other side of the connection.
func (c Connection) Counterpart(actorID string) string {
	if actorID == c.NGOID {
		return c.ArtisanID
	}
	return c.NGOID
}

// Accept moves a pending request to accepted. Only the artisan may answer.
func (c *Connection) Accept(actorID string, now time.Time) error {
	return c.answer(actorID, ConnectionStatusAccepted, now)
}

// Reject moves a pending request to rejected. Only the artisan may answer.
func (c *Connection) Reject(actorID string, now time.Time) error {
	return c.answer(actorID, ConnectionStatusRejected, now)
}

func (c *Connection) answer(actorID string, to ConnectionStatus, now time.Time) error {
	if c.RoleOf(actorID) != RoleArtisan {
		return fmt.Errorf("%w: only the requested artisan can answer connection %s", errors.ErrForbidden, c.ID)
	}
	if c.Status != ConnectionStatusPending {
		return fmt.Errorf("%w: connection %s is already %s", errors.ErrInvalidState, c.ID, c.Status)
	}
	c.Status = to
	c.UpdatedAt = now
	return nil
}

// CheckCancel verifies the NGO may withdraw its request.
func (c Connection) CheckCancel(actorID string) error {
	if c.RoleOf(actorID) != RoleNGO {
		return fmt.Errorf("%w: only the requesting NGO can cancel connection %s", errors.ErrForbidden, c.ID)
	}
	if c.Status != ConnectionStatusPending {
		return fmt.Errorf("%w: connection %s is already %s", errors.ErrInvalidState, c.ID, c.Status)
	}
	return nil
}
