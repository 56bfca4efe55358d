package repository

import (
	"context"
	"fmt"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/roles/domain"
)

const roleClaim = "role"

// ClaimsRepo reads and writes the role custom claim on the identity
// provider. The claim is the authoritative role store.
type ClaimsRepo struct {
	client *fbauth.Client
}

func NewClaimsRepo(client *fbauth.Client) *ClaimsRepo {
	return &ClaimsRepo{client: client}
}

// Role returns the target's role claim. The second return value reports
// whether the claim was present; callers default to RoleUser when it is not.
func (r *ClaimsRepo) Role(ctx context.Context, uid string) (auth.Role, bool, error) {
	record, err := r.client.GetUser(ctx, uid)
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return "", false, domain.ErrUserNotFound
		}
		return "", false, fmt.Errorf("get user %s: %w", uid, err)
	}

	claim, ok := record.CustomClaims[roleClaim].(string)
	if !ok {
		return auth.RoleUser, false, nil
	}
	role, ok := auth.ParseRole(claim)
	if !ok {
		return auth.RoleUser, false, nil
	}
	return role, true, nil
}

// SetRole writes the role claim, preserving any unrelated claims.
// Idempotent: writing the current value again is harmless.
func (r *ClaimsRepo) SetRole(ctx context.Context, uid string, role auth.Role) error {
	record, err := r.client.GetUser(ctx, uid)
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("get user %s: %w", uid, err)
	}

	claims := map[string]interface{}{}
	for k, v := range record.CustomClaims {
		claims[k] = v
	}
	claims[roleClaim] = string(role)

	if err := r.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return fmt.Errorf("set custom claims for %s: %w", uid, err)
	}
	return nil
}

// Revoke invalidates all of the identity's refresh tokens, forcing a new
// ID token (with the current claims) on the next sign-in.
func (r *ClaimsRepo) Revoke(ctx context.Context, uid string) error {
	if err := r.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke refresh tokens for %s: %w", uid, err)
	}
	return nil
}

// List returns up to max identities with their role claims.
func (r *ClaimsRepo) List(ctx context.Context, max int) ([]domain.IdentityInfo, error) {
	if max <= 0 || max > domain.MaxListIdentities {
		max = domain.MaxListIdentities
	}

	users := make([]domain.IdentityInfo, 0, 64)
	it := r.client.Users(ctx, "")
	for len(users) < max {
		record, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}

		role := auth.RoleUser
		if claim, ok := record.CustomClaims[roleClaim].(string); ok {
			if parsed, ok := auth.ParseRole(claim); ok {
				role = parsed
			}
		}

		users = append(users, domain.IdentityInfo{
			UID:         record.UID,
			Email:       record.Email,
			DisplayName: record.DisplayName,
			Role:        string(role),
			CreatedAt:   time.UnixMilli(record.UserMetadata.CreationTimestamp).UTC(),
		})
	}

	return users, nil
}
