package auth

import "github.com/gin-gonic/gin"

// Role is the authorization attribute carried in the ID token's custom claims.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole reports whether s names a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), true
	}
	return "", false
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Identity is the verified caller identity extracted from the ID token.
// It is threaded explicitly into every service call; there is no ambient
// "current user" lookup.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	Role        Role
}

func (i Identity) Authenticated() bool { return i.UID != "" }

const ctxIdentity = "auth_identity"

// SetIdentity stores the verified identity in the Gin context.
// This is done by FirebaseAuthMiddleware.
func SetIdentity(c *gin.Context, ident Identity) {
	c.Set(ctxIdentity, ident)
}

// IdentityFrom extracts the verified identity from the Gin context.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok && ident.Authenticated()
}
