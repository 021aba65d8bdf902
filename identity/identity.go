// Package identity resolves a caller's identity per request and gates
// routes by role. It is the single authorization implementation shared by
// the token-based API surface and the session-based admin surface: the two
// trust boundaries differ only in the Resolver they plug in.
package identity

import (
	"context"
	"errors"

	"campusride/account"
)

var (
	// ErrUnauthenticated signals a missing, malformed or badly signed credential.
	ErrUnauthenticated = errors.New("identity: unauthenticated")
	// ErrTokenExpired signals a credential that verified but is past expiry.
	// Distinct from ErrUnauthenticated so clients can silently refresh.
	ErrTokenExpired = errors.New("identity: token expired")
	// ErrForbidden signals an authenticated caller whose role is not allowed.
	ErrForbidden = errors.New("identity: forbidden")
)

// Identity is the resolved caller attached to the request context.
type Identity struct {
	AccountID string
	Role      account.Role
	Email     string
	FirstName string
	LastName  string
}

type contextKey struct{}

// WithIdentity returns a context carrying the resolved identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the resolved identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
