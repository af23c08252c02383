package api

import (
	"artisan-link/auth"
	"artisan-link/domain"
	"artisan-link/errors"
	"artisan-link/mocks"
	"artisan-link/repositories"
	"artisan-link/runtime"
	"artisan-link/runtime/workers"
	"artisan-link/services"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const secret = "api-test-secret"

type apiFixture struct {
	router *gin.Engine
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// newAPIFixture wires the real services on a temporary Badger store. Every id
// starting with "artisan" is an artisan of the directory.
func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	connectionRepository := repositories.NewConnectionRepository(db, log)
	messageRepository, err := repositories.NewMessageRepository(db, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = messageRepository.Close() })

	ctrl := gomock.NewController(t)
	actors := mocks.NewMockIActorRepository(ctrl)
	actors.EXPECT().
		GetActor(gomock.Any()).
		DoAndReturn(func(id string) (repositories.Actor, error) {
			if strings.HasPrefix(id, "artisan") {
				return repositories.Actor{ID: id, Role: "artisan"}, nil
			}
			return repositories.Actor{}, errors.ErrNotFound
		}).
		AnyTimes()

	connections := services.NewConnectionService(log, connectionRepository, actors)
	conversations := services.NewConversationService(log, connectionRepository, messageRepository)

	registry := runtime.NewRegistry()
	backbone := runtime.NewLocalBackbone(64)
	presence := runtime.NewPresenceTracker(log, backbone, time.Second, time.Second)
	t.Cleanup(presence.Close)
	hub := runtime.NewHub(log, registry, backbone, presence, conversations, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = workers.NewRoomDispatcher(log, registry, backbone).Run(ctx) }()

	handler := NewHandler(log, auth.NewVerifier(secret), connections, conversations, hub,
		SocketConfig{BufferSize: 32, WriteTimeout: time.Second},
		func() any { return map[string]string{"state": "up"} })
	return apiFixture{router: NewRouter(log, handler, nil)}
}

func token(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	signed, err := auth.GenerateToken(userID, role, time.Hour, secret)
	require.NoError(t, err)
	return signed
}

func (f apiFixture) do(t *testing.T, method, path, bearer string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)

	var env envelope
	if recorder.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &env))
	}
	return recorder.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

// acceptedConnection creates a connection between the two actors and accepts it.
func (f apiFixture) acceptedConnection(t *testing.T, ngoToken, artisanID, artisanToken string) domain.Connection {
	t.Helper()
	status, env := f.do(t, http.MethodPost, "/api/v1/connections", ngoToken, services.ConnectionRequest{ArtisanID: artisanID})
	require.Equal(t, http.StatusCreated, status, env.Error)
	conn := decode[domain.Connection](t, env.Data)

	status, env = f.do(t, http.MethodPut, "/api/v1/connection-requests/"+conn.ID.String()+"/accept", artisanToken, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	return decode[domain.Connection](t, env.Data)
}
