package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/services"
	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (entity.Principal, error)
}

type AuthMiddleware struct {
	log  *slog.Logger
	auth Authenticator
}

func NewAuthMiddleware(log *slog.Logger, auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{log: log, auth: auth}
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's principal in the gin context. Only services.ErrUnauthorized maps
// to 401; any other failure is a 500.
func (m *AuthMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			return
		}

		principal, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			m.log.Error("failed to authenticate request", slog.String("path", c.FullPath()), sl.Err(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// Principal returns the caller set by Middleware, or the zero principal.
func Principal(c *gin.Context) entity.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return entity.Principal{}
	}
	p, _ := v.(entity.Principal)
	return p
}

func extractTokenFromHeader(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
