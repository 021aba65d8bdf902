// Package session implements the server-side sessions backing the legacy
// admin surface. A session mirrors the same identity fields a token carries
// but lives independently: it is created at login, destroyed by explicit
// logout or store-side expiry, and outlasts or dies before any token.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"campusride/account"
	"campusride/token"
)

// CookieName is the session-identifier cookie used by the admin surface.
const CookieName = "campusride_session"

// ErrNotFound signals a missing or expired session.
var ErrNotFound = errors.New("session: not found")

// Session is the server-held identity record keyed by the cookie value.
type Session struct {
	ID        string       `json:"id"`
	AccountID string       `json:"account_id"`
	Role      account.Role `json:"role"`
	Email     string       `json:"email"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Store persists sessions. The Redis implementation is the production
// backend; tests run against miniredis.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// Bridge mirrors token-carried identity into a server-side session so the
// two surfaces share one identity after a single login.
type Bridge struct {
	store Store
	ttl   time.Duration
}

// NewBridge creates a session bridge with the given session lifetime.
func NewBridge(store Store, ttl time.Duration) *Bridge {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Bridge{store: store, ttl: ttl}
}

// Mirror creates a session carrying the same identity as claims and sets
// the session cookie.
func (b *Bridge) Mirror(ctx context.Context, w http.ResponseWriter, claims token.Claims) (Session, error) {
	now := time.Now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		AccountID: claims.UserID,
		Role:      claims.Role,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		CreatedAt: now,
		ExpiresAt: now.Add(b.ttl),
	}
	if err := b.store.Create(ctx, s); err != nil {
		return Session{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(b.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// Destroy deletes the session named by the request cookie, if any, and
// expires the cookie. A missing session is not an error: logout is
// idempotent.
func (b *Bridge) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if err := b.store.Delete(ctx, c.Value); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
