package token

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campusride/account"
)

func testClaims() Claims {
	return Claims{
		UserID:    "acct-1",
		Role:      account.RolePassenger,
		Email:     "juan@slu.edu.ph",
		FirstName: "Juan",
		LastName:  "Dela Cruz",
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", TTL: time.Hour})

	signed, err := svc.Issue(testClaims())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if strings.Count(signed, ".") != 2 {
		t.Fatalf("expected three dot-separated segments, got %q", signed)
	}

	got, err := svc.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	want := testClaims()
	if got.UserID != want.UserID || got.Role != want.Role || got.Email != want.Email ||
		got.FirstName != want.FirstName || got.LastName != want.LastName {
		t.Fatalf("claims altered in round trip: %+v", got)
	}
	if got.IssuedAt == nil || got.ExpiresAt == nil {
		t.Fatal("expected issuedAt and expiresAt to be stamped")
	}
	if !got.ExpiresAt.After(got.IssuedAt.Time) {
		t.Fatal("expected expiresAt after issuedAt")
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", TTL: time.Hour})

	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }
	signed, err := svc.Issue(testClaims())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// One second before expiry the token is still good.
	svc.now = func() time.Time { return issuedAt.Add(time.Hour - time.Second) }
	if _, err := svc.Verify(signed); err != nil {
		t.Fatalf("verify 1s before expiry: %v", err)
	}

	// One second after expiry it fails with the distinct expired error.
	svc.now = func() time.Time { return issuedAt.Add(time.Hour + time.Second) }
	if _, err := svc.Verify(signed); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewService(Config{Secret: "secret-a", TTL: time.Hour})
	verifier := NewService(Config{Secret: "secret-b", TTL: time.Hour})

	signed, err := issuer.Issue(testClaims())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := verifier.Verify(signed); !errors.Is(err, ErrSignature) {
		t.Fatalf("expected ErrSignature, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", TTL: time.Hour})

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := svc.Verify(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Verify(%q): expected ErrMalformed, got %v", raw, err)
		}
	}
}

func TestRefreshKeepsPayload(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", TTL: time.Hour})

	issuedAt := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return issuedAt }
	signed, err := svc.Issue(testClaims())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(30 * time.Minute) }
	refreshed, err := svc.Refresh(claims)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed == signed {
		t.Fatal("expected refresh to produce a new token")
	}

	got, err := svc.Verify(refreshed)
	if err != nil {
		t.Fatalf("verify refreshed: %v", err)
	}
	if got.UserID != claims.UserID || got.Role != claims.Role || got.Email != claims.Email {
		t.Fatalf("refresh altered the identity payload: %+v", got)
	}
	if !got.ExpiresAt.After(claims.ExpiresAt.Time) {
		t.Fatal("expected refreshed token to expire later than the original")
	}
}

func TestFromRequestPrefersHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})

	got, ok := FromRequest(r)
	if !ok || got != "header-token" {
		t.Fatalf("expected header token, got %q ok=%v", got, ok)
	}
}

func TestFromRequestCookieFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})

	got, ok := FromRequest(r)
	if !ok || got != "cookie-token" {
		t.Fatalf("expected cookie token, got %q ok=%v", got, ok)
	}

	if _, ok := FromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("expected no token on a bare request")
	}
}

func TestFromRequestBadHeaderShape(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic abc123")
	if _, ok := FromRequest(r); ok {
		t.Fatal("expected no token for a non-Bearer header")
	}
}
