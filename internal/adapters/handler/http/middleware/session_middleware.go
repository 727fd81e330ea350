package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

const ContextSessionKey = "session"

// SessionMiddleware attaches the live session of the authenticated user,
// starting it on the first request after login. It must run after
// AuthMiddleware.
func SessionMiddleware(sessions *services.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		session, err := sessions.Open(principal)
		if err != nil {
			_ = c.Error(err)
			switch {
			case errors.Is(err, domain.ErrUnauthenticated):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			case errors.Is(err, domain.ErrPermissionDenied):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": services.MsgSubscribePermissionDenied})
			default:
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "sync unavailable", "details": err.Error()})
			}
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

func GetSession(c *gin.Context) (*services.Session, bool) {
	v, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, false
	}
	s, ok := v.(*services.Session)
	return s, ok
}
