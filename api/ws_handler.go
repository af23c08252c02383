package api

import (
	"artisan-link/contract"
	"artisan-link/domain"
	"artisan-link/errors"
	"artisan-link/sink"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Client to server frame types.
const (
	RegisterFrame       = "register"
	JoinFrame           = "join-connection"
	SendMessageFrame    = "send-message"
	EditMessageFrame    = "edit-message"
	DeleteMessageFrame  = "delete-message"
	TypingFrame         = "typing"
	StopTypingFrame     = "stop-typing"
	MarkReadFrame       = "mark-read"
	RegisteredFrame     = "registered"
	JoinedFrame         = "joined"
	ErrorFrame          = "error"
	errorCodeValidation = "validation_error"
)

type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// socketPayload is the union of every client frame payload.
type socketPayload struct {
	UserID       string `json:"userId,omitempty"`
	ConnectionID string `json:"connectionId,omitempty"`
	MessageID    string `json:"messageId,omitempty"`
	Content      string `json:"content,omitempty"`
}

type errorPayload struct {
	Event   string `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeSocket authenticates the token query parameter, upgrades the request and
// runs the read loop of the socket until the client goes away.
func (h *Handler) ServeSocket(c *gin.Context) {
	identity, err := h.verifier.ValidateToken(c.Query("token"))
	if err != nil {
		Error(c, h.log, err)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: h.sockets.InsecureSkipVerify,
		OriginPatterns:     h.sockets.OriginPatterns,
	})
	if err != nil {
		// Accept already wrote the response
		h.log.Debug("Websocket upgrade failed", "error", err)
		return
	}

	socketID := contract.SocketID(uuid.NewString())
	out := sink.NewSocketSink(h.log, conn, h.sockets.BufferSize, h.sockets.WriteTimeout, h.sockets.PingInterval)
	h.hub.Connect(socketID, identity.UserID, out)
	defer func() {
		h.hub.Disconnect(socketID)
		out.Close(websocket.StatusNormalClosure, "bye")
	}()

	ctx := c.Request.Context()
	for {
		var frame inboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				h.log.Debug("Socket read stopped", "socket_id", socketID, "error", err)
			}
			return
		}
		h.handleFrame(ctx, socketID, identity, out, frame)
	}
}

func (h *Handler) handleFrame(ctx context.Context, socketID contract.SocketID, identity domain.Identity,
	out *sink.SocketSink, frame inboundFrame) {
	var payload socketPayload
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			h.reply(out, frame.Type, fmt.Errorf("%w: malformed payload", errors.ErrValidation))
			return
		}
	}

	switch frame.Type {
	case RegisterFrame:
		if err := h.hub.Register(socketID, payload.UserID); err != nil {
			h.reply(out, frame.Type, err)
			return
		}
		h.send(out, sink.Frame{Type: RegisteredFrame, Data: socketPayload{UserID: identity.UserID}})

	case JoinFrame:
		connectionID, err := parseID("connectionId", payload.ConnectionID)
		if err != nil {
			h.reply(out, frame.Type, err)
			return
		}
		if h.hub.Join(socketID, connectionID) {
			h.send(out, sink.Frame{Type: JoinedFrame, Data: socketPayload{ConnectionID: connectionID.String()}})
		}

	case SendMessageFrame:
		connectionID, err := parseID("connectionId", payload.ConnectionID)
		if err == nil {
			_, err = h.hub.SendMessage(ctx, domain.PostMessageCommand{
				ConnectionID: connectionID,
				SenderID:     identity.UserID,
				Content:      payload.Content,
			})
		}
		h.reply(out, frame.Type, err)

	case EditMessageFrame:
		messageID, err := parseID("messageId", payload.MessageID)
		if err == nil {
			_, err = h.hub.EditMessage(ctx, domain.EditMessageCommand{
				MessageID: messageID,
				ActorID:   identity.UserID,
				Content:   payload.Content,
			})
		}
		h.reply(out, frame.Type, err)

	case DeleteMessageFrame:
		messageID, err := parseID("messageId", payload.MessageID)
		if err == nil {
			_, err = h.hub.DeleteMessage(ctx, domain.DeleteMessageCommand{MessageID: messageID, ActorID: identity.UserID})
		}
		h.reply(out, frame.Type, err)

	case MarkReadFrame:
		connectionID, err := parseID("connectionId", payload.ConnectionID)
		if err == nil {
			_, err = h.hub.MarkRead(ctx, domain.MarkReadCommand{ConnectionID: connectionID, ReaderID: identity.UserID})
		}
		h.reply(out, frame.Type, err)

	// Typing outside a joined room is dropped without answer
	case TypingFrame:
		if connectionID, err := parseID("connectionId", payload.ConnectionID); err == nil {
			h.hub.Typing(socketID, connectionID)
		}
	case StopTypingFrame:
		if connectionID, err := parseID("connectionId", payload.ConnectionID); err == nil {
			h.hub.StopTyping(socketID, connectionID)
		}

	default:
		h.send(out, sink.Frame{Type: ErrorFrame, Data: errorPayload{
			Event:   frame.Type,
			Code:    errorCodeValidation,
			Message: fmt.Sprintf("unknown event %q", frame.Type),
		}})
	}
}

// reply answers the initiating socket only, and only when err is not nil:
// successful writes are visible through the room broadcast.
func (h *Handler) reply(out *sink.SocketSink, event string, err error) {
	if err == nil {
		return
	}
	if errors.Code(err) == "internal" {
		h.log.Error("Socket event failed", "event", event, "error", err)
	}
	h.send(out, sink.Frame{Type: ErrorFrame, Data: errorPayload{
		Event:   event,
		Code:    errors.Code(err),
		Message: errors.Public(err),
	}})
}

func (h *Handler) send(out *sink.SocketSink, frame sink.Frame) {
	if err := out.Send(frame); err != nil {
		h.log.Debug("Reply not sent", "type", frame.Type, "error", err)
	}
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", errors.ErrValidation, field)
	}
	return id, nil
}
