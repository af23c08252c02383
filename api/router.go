package api

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every route under /api/v1. Only health and the websocket
// upgrade (which authenticates its token query parameter) skip AuthMiddleware.
func NewRouter(log *slog.Logger, h *Handler, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))
	router.Use(cors.New(corsConfig(corsOrigins)))

	public := router.Group("/api/v1")
	{
		public.GET("/healthz", h.Health)
		public.GET("/ws", h.ServeSocket)
	}

	private := router.Group("/api/v1")
	private.Use(AuthMiddleware(log, h.verifier))
	{
		connections := private.Group("/connections")
		{
			connections.POST("", h.CreateConnection)
			connections.GET("", h.ListConnections)
			connections.GET("/:id", h.GetConnection)
			connections.DELETE("/:id", h.CancelConnection)
		}

		requests := private.Group("/connection-requests")
		{
			requests.PUT("/:id/accept", h.AcceptConnection)
			requests.PUT("/:id/reject", h.RejectConnection)
		}

		messages := private.Group("/messages")
		{
			messages.GET("/:connectionId", h.ListMessages)
			messages.POST("/:connectionId", h.PostMessage)
			messages.POST("/:connectionId/read", h.MarkRead)
			messages.PUT("/:id", h.EditMessage)
			messages.DELETE("/:id", h.DeleteMessage)
		}
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
		config.AllowCredentials = false
		return config
	}
	config.AllowOrigins = origins
	return config
}
