package domain

import "time"

// MaxListIdentities caps a single identity listing, mirroring the
// provider's page limit.
const MaxListIdentities = 1000

// Profile mirrors identity metadata into Postgres for listing/display.
// The custom claim is authoritative; the mirror is a convenience cache
// and is repaired by the reconcile job when it drifts.
type Profile struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IdentityInfo is one row of an identity listing, read from the
// identity provider (not from the mirror).
type IdentityInfo struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}
