package identity

import (
	"errors"
	"net/http"

	"campusride/account"
)

// Middleware wires a Resolver into the HTTP stack. Both surfaces construct
// one of these around their own resolver and share the gate logic below.
type Middleware struct {
	resolver Resolver
}

// NewMiddleware creates the middleware around a resolver.
func NewMiddleware(resolver Resolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// Authenticate requires a resolvable identity and attaches it to the
// request context. Expired credentials get their own error code so clients
// can refresh silently instead of re-authenticating.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.resolver.Resolve(r)
		if err != nil {
			writeAuthFailure(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// Optional resolves identity when present but never fails the request.
// Downstream handlers observe identity-or-absence via FromContext.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := m.resolver.Resolve(r); err == nil {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole gates a route to the given roles. It must run after
// Authenticate; a request without a resolved identity is rejected as
// unauthenticated, an authenticated request with the wrong role as
// forbidden.
func RequireRole(roles ...account.Role) func(http.Handler) http.Handler {
	allowed := make(map[account.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				writeAuthFailure(w, ErrUnauthenticated)
				return
			}
			if !allowed[id.Role] {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"forbidden","message":"role not permitted for this resource"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthFailure(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if errors.Is(err, ErrTokenExpired) {
		w.Write([]byte(`{"error":"token_expired","message":"token expired, refresh required"}`))
		return
	}
	w.Write([]byte(`{"error":"unauthenticated","message":"missing or invalid credentials"}`))
}
