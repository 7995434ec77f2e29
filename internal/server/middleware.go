package server

import (
	"net/http"

	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionAccountKey = "account_id"
	ctxIdentityKey    = "identity"
	requestIDHeader   = "X-Request-ID"
)

// RequestID assigns each request an id, echoed in the response header
// and attached to handler logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// authRequired resolves the session into an explicit caller identity.
// The account is re-read per request so role changes take effect
// immediately.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw := session.Get(sessionAccountKey)
		accountID, ok := raw.(int64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}

		account, err := s.identity.GetAccount(c.Request.Context(), accountID)
		if err != nil || account == nil {
			session.Clear()
			_ = session.Save()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}

		c.Set(ctxIdentityKey, model.Identity{AccountID: account.ID, Role: account.Role})
		c.Next()
	}
}

func callerIdentity(c *gin.Context) model.Identity {
	return c.MustGet(ctxIdentityKey).(model.Identity)
}
