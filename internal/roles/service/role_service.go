package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/roles/domain"
)

// ClaimsStore is the authoritative role store on the identity provider.
type ClaimsStore interface {
	Role(ctx context.Context, uid string) (role auth.Role, present bool, err error)
	SetRole(ctx context.Context, uid string, role auth.Role) error
	Revoke(ctx context.Context, uid string) error
	List(ctx context.Context, max int) ([]domain.IdentityInfo, error)
}

// ProfileStore is the mirrored profile cache used for listing/display.
type ProfileStore interface {
	Ensure(ctx context.Context, uid, email, displayName string) error
	UpsertRole(ctx context.Context, uid string, role auth.Role) error
	Get(ctx context.Context, uid string) (*domain.Profile, error)
}

type Service struct {
	claims   ClaimsStore
	profiles ProfileStore
	log      zerolog.Logger

	// listOpenToAll keeps the interim policy where any authenticated caller
	// may list identities. Admin-only is the default.
	listOpenToAll bool
}

func New(claims ClaimsStore, profiles ProfileStore, log zerolog.Logger, listOpenToAll bool) *Service {
	return &Service{
		claims:        claims,
		profiles:      profiles,
		log:           log.With().Str("component", "roles").Logger(),
		listOpenToAll: listOpenToAll,
	}
}

// callerRole re-reads the caller's role from the claims store. Privileged
// operations never trust the token the caller presented for this check.
func (s *Service) callerRole(ctx context.Context, callerUID string) (auth.Role, error) {
	role, _, err := s.claims.Role(ctx, callerUID)
	if err != nil {
		return "", err
	}
	return role, nil
}

// AssignRole changes the target's role claim and mirror, then revokes the
// target's sessions so the old claim cannot outlive its token.
func (s *Service) AssignRole(ctx context.Context, caller auth.Identity, targetUID string, role auth.Role) (string, error) {
	if !caller.Authenticated() {
		return "", domain.ErrUnauthenticated
	}

	callerRole, err := s.callerRole(ctx, caller.UID)
	if err != nil {
		return "", err
	}
	if !callerRole.IsAdmin() {
		return "", domain.ErrPermissionDenied
	}

	if targetUID == "" {
		return "", domain.ErrMissingUserID
	}
	if _, ok := auth.ParseRole(string(role)); !ok {
		return "", domain.ErrInvalidRole
	}

	// An admin may never demote itself; this keeps the last admin from
	// locking everyone out.
	if targetUID == caller.UID && role == auth.RoleUser {
		return "", domain.ErrSelfDemotion
	}

	if err := s.claims.SetRole(ctx, targetUID, role); err != nil {
		return "", err
	}
	if err := s.profiles.UpsertRole(ctx, targetUID, role); err != nil {
		return "", err
	}
	if err := s.claims.Revoke(ctx, targetUID); err != nil {
		return "", err
	}

	s.log.Info().
		Str("target", targetUID).
		Str("role", string(role)).
		Str("caller", caller.UID).
		Msg("role assigned")

	return fmt.Sprintf("role changed to %s", role), nil
}

// GetRole returns the target's role. With an empty target it returns the
// caller's own role; reading another user's role requires admin.
func (s *Service) GetRole(ctx context.Context, caller auth.Identity, targetUID string) (string, auth.Role, error) {
	if !caller.Authenticated() {
		return "", "", domain.ErrUnauthenticated
	}

	if targetUID == "" {
		targetUID = caller.UID
	}

	if targetUID != caller.UID {
		callerRole, err := s.callerRole(ctx, caller.UID)
		if err != nil {
			return "", "", err
		}
		if !callerRole.IsAdmin() {
			return "", "", domain.ErrPermissionDenied
		}
	}

	role, _, err := s.claims.Role(ctx, targetUID)
	if err != nil {
		return "", "", err
	}
	return targetUID, role, nil
}

// ListIdentities returns up to MaxListIdentities identities with their roles.
func (s *Service) ListIdentities(ctx context.Context, caller auth.Identity) ([]domain.IdentityInfo, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	if !s.listOpenToAll {
		callerRole, err := s.callerRole(ctx, caller.UID)
		if err != nil {
			return nil, err
		}
		if !callerRole.IsAdmin() {
			return nil, domain.ErrPermissionDenied
		}
	}

	return s.claims.List(ctx, domain.MaxListIdentities)
}

// EnsureFirstSeen assigns the default role claim and creates the mirrored
// profile on an identity's first authentication. Idempotent: re-running it
// never downgrades an existing claim or clobbers the mirror's role.
func (s *Service) EnsureFirstSeen(ctx context.Context, uid, email, displayName string) error {
	if uid == "" {
		return domain.ErrMissingUserID
	}

	_, present, err := s.claims.Role(ctx, uid)
	if err != nil {
		s.log.Warn().Err(err).Str("uid", uid).Msg("first-seen claim read failed")
		return err
	}
	if !present {
		if err := s.claims.SetRole(ctx, uid, auth.RoleUser); err != nil {
			s.log.Warn().Err(err).Str("uid", uid).Msg("first-seen role claim write failed")
			return err
		}
	}

	if err := s.profiles.Ensure(ctx, uid, email, displayName); err != nil {
		s.log.Warn().Err(err).Str("uid", uid).Msg("first-seen profile mirror write failed")
		return err
	}

	return nil
}

// Profile returns the mirrored profile for an identity, or nil when the
// mirror has no row yet.
func (s *Service) Profile(ctx context.Context, caller auth.Identity) (*domain.Profile, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	p, err := s.profiles.Get(ctx, caller.UID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	return p, err
}
