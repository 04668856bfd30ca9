package shared

import "context"

// Identity is the authenticated staff member attached to a request.
type Identity struct {
	StaffID int64
	Email   string
	Name    string
	Role    string
}

type contextKey string

const identityKey contextKey = "molaris.identity"

// ContextWithIdentity attaches the staff identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the staff identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
