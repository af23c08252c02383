package api

import (
	"artisan-link/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contentRequest struct {
	Content string `json:"content"`
}

type readReceipt struct {
	MessageIDs []uuid.UUID `json:"messageIds"`
}

func (h *Handler) ListMessages(c *gin.Context) {
	connectionID, ok := pathID(c, h.log, "connectionId")
	if !ok {
		return
	}
	messages, err := h.conversations.List(connectionID, identityOf(c).UserID)
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Success(c, "Messages retrieved", messages)
}

// PostMessage goes through the hub so sockets of the room receive it too.
func (h *Handler) PostMessage(c *gin.Context) {
	connectionID, ok := pathID(c, h.log, "connectionId")
	if !ok {
		return
	}
	var req contentRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	message, err := h.hub.SendMessage(c.Request.Context(), domain.PostMessageCommand{
		ConnectionID: connectionID,
		SenderID:     identityOf(c).UserID,
		Content:      req.Content,
	})
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Created(c, "Message sent", message)
}

func (h *Handler) EditMessage(c *gin.Context) {
	id, ok := pathID(c, h.log, "id")
	if !ok {
		return
	}
	var req contentRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	message, err := h.hub.EditMessage(c.Request.Context(), domain.EditMessageCommand{
		MessageID: id,
		ActorID:   identityOf(c).UserID,
		Content:   req.Content,
	})
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Success(c, "Message edited", message)
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	id, ok := pathID(c, h.log, "id")
	if !ok {
		return
	}
	_, err := h.hub.DeleteMessage(c.Request.Context(), domain.DeleteMessageCommand{
		MessageID: id,
		ActorID:   identityOf(c).UserID,
	})
	if err != nil {
		Error(c, h.log, err)
		return
	}
	NoContent(c)
}

func (h *Handler) MarkRead(c *gin.Context) {
	connectionID, ok := pathID(c, h.log, "connectionId")
	if !ok {
		return
	}
	ids, err := h.hub.MarkRead(c.Request.Context(), domain.MarkReadCommand{
		ConnectionID: connectionID,
		ReaderID:     identityOf(c).UserID,
	})
	if err != nil {
		Error(c, h.log, err)
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	Success(c, "Messages marked as read", readReceipt{MessageIDs: ids})
}
