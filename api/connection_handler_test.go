package api

import (
	"artisan-link/domain"
	"artisan-link/services"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAPI_Authentication(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	// Health is public
	status, env := f.do(t, http.MethodGet, "/api/v1/healthz", "", nil)
	req.Equal(http.StatusOK, status)
	req.JSONEq(`{"state":"up"}`, string(env.Data))

	// Everything else needs a valid bearer token
	status, _ = f.do(t, http.MethodGet, "/api/v1/connections", "", nil)
	req.Equal(http.StatusUnauthorized, status)

	status, env = f.do(t, http.MethodGet, "/api/v1/connections", "forged.token.value", nil)
	req.Equal(http.StatusUnauthorized, status)
	req.NotEmpty(env.Error)
}

func TestAPI_Connection_Request_Flow(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	ngo := token(t, "ngo-1", domain.RoleNGO)
	artisan := token(t, "artisan-1", domain.RoleArtisan)

	// Given the NGO sends a request
	status, env := f.do(t, http.MethodPost, "/api/v1/connections", ngo, services.ConnectionRequest{
		ArtisanID: "artisan-1",
		Message:   "Hello",
		Purpose:   "Collaboration",
	})
	req.Equal(http.StatusCreated, status, env.Error)
	conn := decode[domain.Connection](t, env.Data)
	req.Equal(domain.ConnectionStatusPending, conn.Status)

	// A second request for the same pair is a conflict
	status, _ = f.do(t, http.MethodPost, "/api/v1/connections", ngo, services.ConnectionRequest{ArtisanID: "artisan-1"})
	req.Equal(http.StatusConflict, status)

	// Artisans cannot send requests, and unknown artisans are not found
	status, _ = f.do(t, http.MethodPost, "/api/v1/connections", artisan, services.ConnectionRequest{ArtisanID: "artisan-2"})
	req.Equal(http.StatusForbidden, status)
	status, _ = f.do(t, http.MethodPost, "/api/v1/connections", ngo, services.ConnectionRequest{ArtisanID: "ghost"})
	req.Equal(http.StatusNotFound, status)

	// The artisan sees it as pending
	status, env = f.do(t, http.MethodGet, "/api/v1/connections?status=pending", artisan, nil)
	req.Equal(http.StatusOK, status)
	pending := decode[[]domain.Connection](t, env.Data)
	req.Len(pending, 1)
	req.Equal(conn.ID, pending[0].ID)

	// Only the artisan can answer
	acceptPath := "/api/v1/connection-requests/" + conn.ID.String() + "/accept"
	status, _ = f.do(t, http.MethodPut, acceptPath, ngo, nil)
	req.Equal(http.StatusForbidden, status)

	status, env = f.do(t, http.MethodPut, acceptPath, artisan, nil)
	req.Equal(http.StatusOK, status)
	req.Equal(domain.ConnectionStatusAccepted, decode[domain.Connection](t, env.Data).Status)

	// Answering twice is an invalid state
	status, _ = f.do(t, http.MethodPut, "/api/v1/connection-requests/"+conn.ID.String()+"/reject", artisan, nil)
	req.Equal(http.StatusConflict, status)

	// An accepted request cannot be cancelled
	status, _ = f.do(t, http.MethodDelete, "/api/v1/connections/"+conn.ID.String(), ngo, nil)
	req.Equal(http.StatusConflict, status)

	// The NGO reads it back
	status, env = f.do(t, http.MethodGet, "/api/v1/connections/"+conn.ID.String(), ngo, nil)
	req.Equal(http.StatusOK, status)
	req.Equal(conn.ID, decode[domain.Connection](t, env.Data).ID)
}

func TestAPI_Connection_Bad_Input(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	ngo := token(t, "ngo-1", domain.RoleNGO)

	status, _ := f.do(t, http.MethodGet, "/api/v1/connections?status=maybe", ngo, nil)
	req.Equal(http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodGet, "/api/v1/connections/not-a-uuid", ngo, nil)
	req.Equal(http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodPost, "/api/v1/connections", ngo, map[string]int{"artisanId": 42})
	req.Equal(http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodGet, "/api/v1/connections/"+uuid.NewString(), ngo, nil)
	req.Equal(http.StatusNotFound, status)
}

func TestAPI_Cancel_Connection(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	ngo := token(t, "ngo-1", domain.RoleNGO)
	artisan := token(t, "artisan-1", domain.RoleArtisan)

	_, env := f.do(t, http.MethodPost, "/api/v1/connections", ngo, services.ConnectionRequest{ArtisanID: "artisan-1"})
	conn := decode[domain.Connection](t, env.Data)
	path := "/api/v1/connections/" + conn.ID.String()

	// Outsiders do not even see it
	status, _ := f.do(t, http.MethodGet, path, token(t, "ngo-2", domain.RoleNGO), nil)
	req.Equal(http.StatusNotFound, status)

	status, _ = f.do(t, http.MethodDelete, path, artisan, nil)
	req.Equal(http.StatusForbidden, status)

	status, _ = f.do(t, http.MethodDelete, path, ngo, nil)
	req.Equal(http.StatusNoContent, status)

	status, env = f.do(t, http.MethodGet, "/api/v1/connections", ngo, nil)
	req.Equal(http.StatusOK, status)
	req.Empty(decode[[]domain.Connection](t, env.Data))
}
