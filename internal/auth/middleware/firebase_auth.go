package middleware

import (
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
)

// FirebaseAuthMiddleware validates Firebase ID tokens and extracts the caller identity
func FirebaseAuthMiddleware(authClient *fbauth.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			c.Abort()
			return
		}

		decodedToken, err := authClient.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		ident := auth.Identity{
			UID:  decodedToken.UID,
			Role: auth.RoleUser,
		}
		if email, ok := decodedToken.Claims["email"].(string); ok {
			ident.Email = email
		}
		if name, ok := decodedToken.Claims["name"].(string); ok {
			ident.DisplayName = name
		}
		// The role claim is trusted as-is; assignments revoke refresh tokens so
		// a stale claim cannot outlive its session.
		if claim, ok := decodedToken.Claims["role"].(string); ok {
			if role, ok := auth.ParseRole(claim); ok {
				ident.Role = role
			}
		}

		auth.SetIdentity(c, ident)

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
