package api

import (
	"artisan-link/auth"
	"artisan-link/errors"
	"artisan-link/runtime"
	"artisan-link/services"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SocketConfig tunes every websocket served by the handler.
type SocketConfig struct {
	BufferSize         int
	WriteTimeout       time.Duration
	PingInterval       time.Duration
	InsecureSkipVerify bool
	OriginPatterns     []string
}

type Handler struct {
	log           *slog.Logger
	verifier      *auth.Verifier
	connections   services.IConnectionService
	conversations services.IConversationService
	hub           *runtime.Hub
	sockets       SocketConfig
	health        func() any
}

func NewHandler(log *slog.Logger, verifier *auth.Verifier,
	connections services.IConnectionService, conversations services.IConversationService,
	hub *runtime.Hub, sockets SocketConfig, health func() any) *Handler {
	return &Handler{
		log:           log,
		verifier:      verifier,
		connections:   connections,
		conversations: conversations,
		hub:           hub,
		sockets:       sockets,
		health:        health,
	}
}

func (h *Handler) Health(c *gin.Context) {
	var status any
	if h.health != nil {
		status = h.health()
	}
	Success(c, "ok", status)
}

// pathID parses a uuid path parameter, answering 400 itself when it is malformed.
func pathID(c *gin.Context, log *slog.Logger, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Error(c, log, fmt.Errorf("%w: %s is not a valid id", errors.ErrValidation, name))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON answers 400 itself when the body cannot be decoded.
func bindJSON(c *gin.Context, log *slog.Logger, target any) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		Error(c, log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return false
	}
	return true
}
