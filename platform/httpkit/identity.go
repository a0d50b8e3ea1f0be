package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const contextIdentityKey = "httpkit.identity"

// Identity is the authenticated caller as seen by handlers.
type Identity interface {
	UserID() uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	userID uuid.UUID
	roles  []string
}

func (i identity) UserID() uuid.UUID { return i.userID }

func (i identity) Roles() []string { return i.roles }

func (i identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i identity) IsAuthenticated() bool { return i.userID != uuid.Nil }

// SetIdentity attaches the authenticated caller to the request.
func SetIdentity(c *gin.Context, userID uuid.UUID, roles []string) {
	c.Set(contextIdentityKey, identity{userID: userID, roles: roles})
}

// GetIdentity returns the caller, or an unauthenticated identity on routes
// without AuthRequired.
func GetIdentity(c *gin.Context) Identity {
	if v, ok := c.Get(contextIdentityKey); ok {
		if id, ok := v.(identity); ok {
			return id
		}
	}
	return identity{}
}
