package identity

import (
	"errors"
	"fmt"
	"net/http"

	"campusride/session"
	"campusride/token"
)

// Resolver turns an HTTP request into an Identity. Implementations map to
// the two identity-carrying strategies: stateless tokens and server-side
// sessions.
type Resolver interface {
	Resolve(r *http.Request) (Identity, error)
}

// TokenResolver resolves identity from a signed token, Authorization header
// first and cookie second. Verification is pure CPU work; there is no I/O
// on this path.
type TokenResolver struct {
	tokens *token.Service
}

// NewTokenResolver creates the token-backed resolver.
func NewTokenResolver(tokens *token.Service) *TokenResolver {
	return &TokenResolver{tokens: tokens}
}

// Resolve verifies the transported token. An absent token is
// ErrUnauthenticated; an expired one is ErrTokenExpired, kept distinct so
// the caller can choose refresh over re-login.
func (tr *TokenResolver) Resolve(r *http.Request) (Identity, error) {
	raw, ok := token.FromRequest(r)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}

	claims, err := tr.tokens.Verify(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	return Identity{
		AccountID: claims.UserID,
		Role:      claims.Role,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}, nil
}

// SessionResolver resolves identity from the legacy server-side session.
// The store lookup is the only I/O in the middleware layer.
type SessionResolver struct {
	store session.Store
}

// NewSessionResolver creates the session-backed resolver.
func NewSessionResolver(store session.Store) *SessionResolver {
	return &SessionResolver{store: store}
}

// Resolve loads the session named by the session cookie. Missing cookie and
// missing/expired session both map to ErrUnauthenticated; there is no
// refresh path for sessions.
func (sr *SessionResolver) Resolve(r *http.Request) (Identity, error) {
	c, err := r.Cookie(session.CookieName)
	if err != nil || c.Value == "" {
		return Identity{}, ErrUnauthenticated
	}

	sess, err := sr.store.Get(r.Context(), c.Value)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, fmt.Errorf("identity: session lookup: %w", err)
	}

	return Identity{
		AccountID: sess.AccountID,
		Role:      sess.Role,
		Email:     sess.Email,
		FirstName: sess.FirstName,
		LastName:  sess.LastName,
	}, nil
}
