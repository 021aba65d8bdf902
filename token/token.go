// Package token issues and verifies the HS256 credentials shared by the API
// and admin processes. Both processes must be deployed with the same secret,
// algorithm and claim shape; nothing checks that agreement at runtime, so a
// mismatch shows up as verification failures on one side only.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campusride/account"
)

var (
	// ErrExpired signals a well-formed, correctly signed token past its expiry.
	// Kept distinct from ErrSignature/ErrMalformed so clients can attempt a
	// silent refresh instead of forcing a re-login.
	ErrExpired = errors.New("token: expired")
	// ErrSignature signals a token whose signature does not verify.
	ErrSignature = errors.New("token: invalid signature")
	// ErrMalformed signals a token that is not a parseable JWT.
	ErrMalformed = errors.New("token: malformed")
)

// Claims is the identity payload carried by every issued token. Once issued
// a token's claims never change; refresh produces a new token instead.
type Claims struct {
	UserID    string       `json:"user_id"`
	Role      account.Role `json:"role"`
	Email     string       `json:"email"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	jwt.RegisteredClaims
}

// Config is the shared-secret deployment contract, injected identically into
// the issuing and verifying processes.
type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// Service signs and verifies tokens with a symmetric secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewService creates a token service from the shared-secret config.
func NewService(cfg Config) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "campusride"
	}
	return &Service{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue signs a token carrying the given identity. IssuedAt and ExpiresAt
// are stamped here; everything else in claims passes through untouched.
func (s *Service) Issue(claims Claims) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. Failures are
// triaged into ErrExpired, ErrSignature and ErrMalformed so callers can
// react differently to each.
func (s *Service) Verify(tokenString string) (Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrSignature
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	if !tok.Valid {
		return Claims{}, ErrSignature
	}
	if !account.ValidRole(claims.Role) {
		return Claims{}, fmt.Errorf("%w: unknown role %q", ErrMalformed, claims.Role)
	}

	return claims, nil
}

// Refresh issues a new token with the identical identity payload and renewed
// issuedAt/expiresAt. It deliberately does not consult storage: a role that
// changed after the original issue keeps its old value until the holder
// re-authenticates, and mid-lifetime revocation is not supported.
func (s *Service) Refresh(verified Claims) (string, error) {
	return s.Issue(Claims{
		UserID:    verified.UserID,
		Role:      verified.Role,
		Email:     verified.Email,
		FirstName: verified.FirstName,
		LastName:  verified.LastName,
	})
}
