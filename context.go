package sessionauth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Identity is the verified principal of one request. It exists only after
// a session has been fetched, found live and renewed.
type Identity struct {
	AccountID uuid.UUID
	SessionID uuid.UUID
	// Token is the raw bearer token, echoed back so the client keeps using it.
	Token string
	// ExpiresAt is the renewed expiry.
	ExpiresAt time.Time
}

type identityContextKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity placed by the authorization
// middleware, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	return id, ok && id != nil
}
