package domain

import (
	"artisan-link/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	ngoID      = "ngo-1"
	artisanID  = "artisan-1"
	strangerID = "someone-else"
)

func TestConnection_Accept_Only_By_Artisan_While_Pending(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()
	conn := NewConnection(ngoID, artisanID, "Hi", "embroidery workshop", now)
	req.Equal(ConnectionStatusPending, conn.Status)

	// When the NGO or a stranger tries to answer
	req.ErrorIs(conn.Accept(ngoID, now), errors.ErrForbidden)
	req.ErrorIs(conn.Reject(strangerID, now), errors.ErrForbidden)
	req.Equal(ConnectionStatusPending, conn.Status)

	// When the artisan accepts
	later := now.Add(time.Minute)
	req.NoError(conn.Accept(artisanID, later))

	// Then the connection is terminal
	req.Equal(ConnectionStatusAccepted, conn.Status)
	req.Equal(later, conn.UpdatedAt)
	req.ErrorIs(conn.Accept(artisanID, later), errors.ErrInvalidState)
	req.ErrorIs(conn.Reject(artisanID, later), errors.ErrInvalidState)
}

func TestConnection_Reject_Is_Terminal(t *testing.T) {
	req := require.New(t)
	conn := NewConnection(ngoID, artisanID, "", "", time.Now())

	req.NoError(conn.Reject(artisanID, time.Now()))
	req.Equal(ConnectionStatusRejected, conn.Status)
	req.ErrorIs(conn.Accept(artisanID, time.Now()), errors.ErrInvalidState)
	req.ErrorIs(conn.CheckCancel(ngoID), errors.ErrInvalidState)
}

func TestConnection_CheckCancel(t *testing.T) {
	req := require.New(t)
	conn := NewConnection(ngoID, artisanID, "", "", time.Now())

	req.ErrorIs(conn.CheckCancel(artisanID), errors.ErrForbidden)
	req.ErrorIs(conn.CheckCancel(strangerID), errors.ErrForbidden)
	req.NoError(conn.CheckCancel(ngoID))
}

func TestConnection_RoleOf(t *testing.T) {
	req := require.New(t)
	conn := NewConnection(ngoID, artisanID, "", "", time.Now())

	req.Equal(RoleNGO, conn.RoleOf(ngoID))
	req.Equal(RoleArtisan, conn.RoleOf(artisanID))
	req.Equal(RoleUser, conn.RoleOf(strangerID))
	req.Equal(RoleUser, conn.RoleOf(""))
	req.Equal(artisanID, conn.Counterpart(ngoID))
	req.Equal(ngoID, conn.Counterpart(artisanID))
}

func TestCanMessage(t *testing.T) {
	now := time.Now()
	pending := NewConnection(ngoID, artisanID, "", "", now)
	accepted := pending
	require.NoError(t, accepted.Accept(artisanID, now))
	rejected := pending
	require.NoError(t, rejected.Reject(artisanID, now))

	tests := []struct {
		name  string
		conn  Connection
		actor string
		want  bool
	}{
		{"pending ngo", pending, ngoID, false},
		{"pending artisan", pending, artisanID, false},
		{"accepted ngo", accepted, ngoID, true},
		{"accepted artisan", accepted, artisanID, true},
		{"accepted stranger", accepted, strangerID, false},
		{"rejected artisan", rejected, artisanID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CanMessage(tt.conn, tt.actor))
		})
	}
}

func TestParseConnectionStatus(t *testing.T) {
	req := require.New(t)
	status, err := ParseConnectionStatus(" Accepted ")
	req.NoError(err)
	req.Equal(ConnectionStatusAccepted, status)

	_, err = ParseConnectionStatus("archived")
	req.ErrorIs(err, errors.ErrValidation)
}

func TestParseRole(t *testing.T) {
	req := require.New(t)
	for _, role := range []Role{RoleUser, RoleNGO, RoleArtisan, RoleAdmin} {
		parsed, err := ParseRole(role.String())
		req.NoError(err)
		req.Equal(role, parsed)
	}
	_, err := ParseRole("superuser")
	req.ErrorIs(err, errors.ErrUnknownRole)
}
