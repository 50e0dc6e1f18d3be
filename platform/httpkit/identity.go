package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the authenticated caller, rebuilt from the claims AuthRequired
// left on the request context. Role checks happen in middleware; handlers
// only ever need the user ID.
type Identity struct {
	userID uuid.UUID
}

// UserID returns the caller's user ID.
func (i *Identity) UserID() uuid.UUID {
	return i.userID
}

// GetIdentity reads the caller off the gin context. Returns nil when the
// request did not pass AuthRequired.
func GetIdentity(c *gin.Context) *Identity {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return nil
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return nil
	}
	return &Identity{userID: userID}
}

// MustGetIdentity is GetIdentity plus a 401 abort for unauthenticated
// requests. Callers must return when it yields nil.
func MustGetIdentity(c *gin.Context) *Identity {
	id := GetIdentity(c)
	if id == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id
}
