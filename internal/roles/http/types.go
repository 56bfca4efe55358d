package http

import (
	"context"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/roles/domain"
)

// RoleService is the slice of the role service the handlers need.
type RoleService interface {
	AssignRole(ctx context.Context, caller auth.Identity, targetUID string, role auth.Role) (string, error)
	GetRole(ctx context.Context, caller auth.Identity, targetUID string) (string, auth.Role, error)
	ListIdentities(ctx context.Context, caller auth.Identity) ([]domain.IdentityInfo, error)
	EnsureFirstSeen(ctx context.Context, uid, email, displayName string) error
	Profile(ctx context.Context, caller auth.Identity) (*domain.Profile, error)
}

type Handler struct {
	roles RoleService
}

func New(roles RoleService) *Handler {
	return &Handler{roles: roles}
}

type assignRoleRequest struct {
	UserID string `json:"userId" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

type syncRequest struct {
	DisplayName string `json:"displayName,omitempty"`
}
