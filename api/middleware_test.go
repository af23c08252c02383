package api

import (
	"artisan-link/auth"
	"artisan-link/domain"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware_Puts_Identity_In_Request_Context(t *testing.T) {
	req := require.New(t)
	gin.SetMode(gin.TestMode)

	var fromContext, fromHandler domain.Identity
	router := gin.New()
	router.GET("/me", AuthMiddleware(slog.Default(), auth.NewVerifier(secret)), func(c *gin.Context) {
		fromContext, _ = auth.IdentityFrom(c.Request.Context())
		fromHandler = identityOf(c)
		c.Status(http.StatusNoContent)
	})

	// When a request carries a valid token
	request := httptest.NewRequest(http.MethodGet, "/me", nil)
	request.Header.Set("Authorization", "Bearer "+token(t, "artisan-1", domain.RoleArtisan))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	// Then handlers and downstream layers see the same identity
	req.Equal(http.StatusNoContent, recorder.Code)
	req.Equal(domain.Identity{UserID: "artisan-1", Role: domain.RoleArtisan}, fromContext)
	req.Equal(fromContext, fromHandler)
}
