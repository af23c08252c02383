package api

import (
	"artisan-link/domain"
	"artisan-link/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateConnection(c *gin.Context) {
	var req services.ConnectionRequest
	if !bindJSON(c, h.log, &req) {
		return
	}
	conn, err := h.connections.SendRequest(identityOf(c), req)
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Created(c, "Connection request sent", conn)
}

// ListConnections accepts an optional ?status=pending|accepted|rejected filter.
func (h *Handler) ListConnections(c *gin.Context) {
	var filter *domain.ConnectionStatus
	if raw, ok := c.GetQuery("status"); ok && raw != "" {
		status, err := domain.ParseConnectionStatus(raw)
		if err != nil {
			Error(c, h.log, err)
			return
		}
		filter = &status
	}
	connections, err := h.connections.List(identityOf(c), filter)
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Success(c, "Connections retrieved", connections)
}

func (h *Handler) GetConnection(c *gin.Context) {
	id, ok := pathID(c, h.log, "id")
	if !ok {
		return
	}
	conn, err := h.connections.Get(id, identityOf(c).UserID)
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Success(c, "Connection retrieved", conn)
}

func (h *Handler) CancelConnection(c *gin.Context) {
	id, ok := pathID(c, h.log, "id")
	if !ok {
		return
	}
	if err := h.connections.Cancel(id, identityOf(c).UserID); err != nil {
		Error(c, h.log, err)
		return
	}
	NoContent(c)
}

func (h *Handler) AcceptConnection(c *gin.Context) {
	id, ok := pathID(c, h.log, "id")
	if !ok {
		return
	}
	conn, err := h.connections.Accept(id, identityOf(c).UserID)
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Success(c, "Connection accepted", conn)
}

func (h *Handler) RejectConnection(c *gin.Context) {
	id, ok := pathID(c, h.log, "id")
	if !ok {
		return
	}
	conn, err := h.connections.Reject(id, identityOf(c).UserID)
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Success(c, "Connection rejected", conn)
}
