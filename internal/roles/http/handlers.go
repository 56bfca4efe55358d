package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/roles/domain"
)

// AssignRole changes a user's role. Admin only; self-demotion is rejected.
func (h *Handler) AssignRole(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and role are required"})
		return
	}

	msg, err := h.roles.AssignRole(c.Request.Context(), ident, req.UserID, auth.Role(req.Role))
	if err != nil {
		writeRoleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// GetOwnRole returns the caller's role.
func (h *Handler) GetOwnRole(c *gin.Context) {
	h.getRole(c, "")
}

// GetRole returns a specific user's role (admin only for other users).
func (h *Handler) GetRole(c *gin.Context) {
	h.getRole(c, c.Param("userId"))
}

func (h *Handler) getRole(c *gin.Context, targetUID string) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	uid, role, err := h.roles.GetRole(c.Request.Context(), ident, targetUID)
	if err != nil {
		writeRoleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": uid, "role": role})
}

// ListUsers lists identities with their roles, capped at 1000.
func (h *Handler) ListUsers(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	users, err := h.roles.ListIdentities(c.Request.Context(), ident)
	if err != nil {
		writeRoleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SyncUser runs the first-seen hook for the authenticated caller: default
// role claim plus mirrored profile. Best effort: a mirror failure is
// reported in the body but never blocks the session.
func (h *Handler) SyncUser(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = ident.DisplayName
	}

	if err := h.roles.EnsureFirstSeen(c.Request.Context(), ident.UID, ident.Email, displayName); err != nil {
		// Authentication already succeeded; mirroring is a side channel.
		c.JSON(http.StatusOK, gin.H{"synced": false})
		return
	}

	profile, err := h.roles.Profile(c.Request.Context(), ident)
	if err != nil || profile == nil {
		c.JSON(http.StatusOK, gin.H{"synced": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"synced": true, "user": profile})
}

func writeRoleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPermissionDenied), errors.Is(err, domain.ErrSelfDemotion):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRole), errors.Is(err, domain.ErrMissingUserID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete role operation"})
	}
}
