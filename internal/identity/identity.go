// Package identity resolves callers to a user id and account tier.
package identity

import (
	"context"

	"taskhub/internal/models"
)

// Identity is the authenticated caller as seen by the core.
type Identity struct {
	UserID int64
	Role   models.Role
}

// IsOwnerTier reports whether the caller registered as an owner.
func (i Identity) IsOwnerTier() bool {
	return i.Role == models.RoleOwner
}

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity stored by WithIdentity and true, or false if absent.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.UserID == 0 {
		return Identity{}, false
	}
	return id, true
}
