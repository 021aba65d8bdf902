package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusride/account"
	"campusride/session"
	"campusride/token"
)

func newTokenService() *token.Service {
	return token.NewService(token.Config{Secret: "test-secret", TTL: time.Hour})
}

func issueFor(t *testing.T, svc *token.Service, role account.Role) string {
	t.Helper()
	signed, err := svc.Issue(token.Claims{
		UserID:    "acct-1",
		Role:      role,
		Email:     "juan@slu.edu.ph",
		FirstName: "Juan",
		LastName:  "Dela Cruz",
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return signed
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(id)
	})
}

func TestAuthenticateWithBearerToken(t *testing.T) {
	svc := newTokenService()
	mw := NewMiddleware(NewTokenResolver(svc))

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer "+issueFor(t, svc, account.RolePassenger))
	w := httptest.NewRecorder()

	mw.Authenticate(echoIdentity()).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var id Identity
	if err := json.Unmarshal(w.Body.Bytes(), &id); err != nil {
		t.Fatalf("decode identity: %v", err)
	}
	if id.AccountID != "acct-1" || id.Role != account.RolePassenger {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestAuthenticateWithCookieFallback(t *testing.T) {
	svc := newTokenService()
	mw := NewMiddleware(NewTokenResolver(svc))

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.AddCookie(&http.Cookie{Name: token.CookieName, Value: issueFor(t, svc, account.RoleDriver)})
	w := httptest.NewRecorder()

	mw.Authenticate(echoIdentity()).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	mw := NewMiddleware(NewTokenResolver(newTokenService()))

	w := httptest.NewRecorder()
	mw.Authenticate(echoIdentity()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "unauthenticated" {
		t.Fatalf("expected unauthenticated code, got %q", body["error"])
	}
}

func TestAuthenticateExpiredTokenDistinctCode(t *testing.T) {
	expired := token.NewService(token.Config{Secret: "test-secret", TTL: -time.Minute})
	mw := NewMiddleware(NewTokenResolver(token.NewService(token.Config{Secret: "test-secret", TTL: time.Hour})))

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer "+issueFor(t, expired, account.RolePassenger))
	w := httptest.NewRecorder()

	mw.Authenticate(echoIdentity()).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "token_expired" {
		t.Fatalf("expected token_expired code, got %q", body["error"])
	}
}

func TestRequireRoleRejectsWrongRole(t *testing.T) {
	svc := newTokenService()
	mw := NewMiddleware(NewTokenResolver(svc))

	handler := mw.Authenticate(RequireRole(account.RoleDriver)(echoIdentity()))

	// A fully valid passenger token resolves fine but fails the gate.
	r := httptest.NewRequest(http.MethodGet, "/driver/profile", nil)
	r.Header.Set("Authorization", "Bearer "+issueFor(t, svc, account.RolePassenger))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	// The same route admits a driver.
	r2 := httptest.NewRequest(http.MethodGet, "/driver/profile", nil)
	r2.Header.Set("Authorization", "Bearer "+issueFor(t, svc, account.RoleDriver))
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, r2)

	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w2.Code)
	}
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	w := httptest.NewRecorder()
	RequireRole(account.RoleDriver)(echoIdentity()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when gate runs without identity, got %d", w.Code)
	}
}

func TestOptionalNeverFails(t *testing.T) {
	mw := NewMiddleware(NewTokenResolver(newTokenService()))

	w := httptest.NewRecorder()
	mw.Optional(echoIdentity()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through without identity, got %d", w.Code)
	}

	svc := newTokenService()
	mw = NewMiddleware(NewTokenResolver(svc))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+issueFor(t, svc, account.RolePassenger))
	w2 := httptest.NewRecorder()
	mw.Optional(echoIdentity()).ServeHTTP(w2, r)

	if w2.Code != http.StatusOK {
		t.Fatalf("expected identity attached when token present, got %d", w2.Code)
	}
}

type fakeSessionStore struct {
	sessions map[string]session.Session
}

func (f *fakeSessionStore) Create(ctx context.Context, s session.Session) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionStore) Get(ctx context.Context, id string) (session.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func TestSessionResolver(t *testing.T) {
	store := &fakeSessionStore{sessions: map[string]session.Session{
		"sess-1": {
			ID:        "sess-1",
			AccountID: "acct-1",
			Role:      account.RoleDriver,
			Email:     "maria@slu.edu.ph",
		},
	}}
	mw := NewMiddleware(NewSessionResolver(store))

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(&http.Cookie{Name: session.CookieName, Value: "sess-1"})
	w := httptest.NewRecorder()
	mw.Authenticate(echoIdentity()).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var id Identity
	json.Unmarshal(w.Body.Bytes(), &id)
	if id.AccountID != "acct-1" || id.Role != account.RoleDriver {
		t.Fatalf("unexpected identity: %+v", id)
	}

	// Unknown session cookie is unauthenticated.
	r2 := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r2.AddCookie(&http.Cookie{Name: session.CookieName, Value: "nope"})
	w2 := httptest.NewRecorder()
	mw.Authenticate(echoIdentity()).ServeHTTP(w2, r2)

	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown session, got %d", w2.Code)
	}
}
