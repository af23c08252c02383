package api

import (
	"artisan-link/auth"
	"artisan-link/domain"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware verifies the bearer token and stores the identity for the handlers.
func AuthMiddleware(log *slog.Logger, verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			Error(c, log, err)
			return
		}
		identity, err := verifier.ValidateToken(token)
		if err != nil {
			log.Debug("Token rejected", "path", c.FullPath(), "error", err)
			Error(c, log, err)
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// identityOf must only be called behind AuthMiddleware.
func identityOf(c *gin.Context) domain.Identity {
	identity, ok := auth.IdentityFrom(c.Request.Context())
	if !ok {
		panic("identity missing from request context, route is not behind AuthMiddleware")
	}
	return identity
}

// RequestLogger logs one line per request once it is served.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("Request served",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start))
	}
}
