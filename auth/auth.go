/*
Package auth issues and checks session tokens for the work log API.

PURPOSE:
  Workers sign in with their name and passkey; office staff sign in with
  the admin passkey. A successful sign-in returns an HS256 JWT carrying
  the identity. The HTTP middleware verifies the token on each request
  and places the Identity in the request context, where handlers read it
  explicitly. Nothing is cached between requests.

SEE ALSO:
  - middleware.go: Bearer/cookie extraction and role checks
  - directory/directory.go: Source of passkeys
*/
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Issuer     = "njc-worklog"
	DefaultTTL = 12 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid name or passkey")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("insufficient role")
	ErrNoSecret           = errors.New("token secret is empty")
)

// Role is what a session may do.
type Role string

const (
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

// Identity is the authenticated caller.
type Identity struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Claims is the JWT body.
type Claims struct {
	Identity
	jwt.RegisteredClaims
}

// =============================================================================
// TOKENS
// =============================================================================

// Tokens signs and verifies session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	Now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, Now: time.Now}, nil
}

// Issue returns a signed token for id and its expiry.
func (t *Tokens) Issue(id Identity) (string, time.Time, error) {
	now := t.Now()
	expires := now.Add(t.ttl)
	claims := Claims{
		Identity: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   id.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a token and returns its identity.
func (t *Tokens) Verify(token string) (Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.Now),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Name == "" || (claims.Role != RoleWorker && claims.Role != RoleAdmin) {
		return Identity{}, ErrInvalidToken
	}
	return claims.Identity, nil
}

// =============================================================================
// CREDENTIALS
// =============================================================================

// Credentials checks passkeys.
type Credentials struct {
	passkeys map[string]string
	admin    string
}

func NewCredentials(passkeys map[string]string, adminPasskey string) *Credentials {
	keys := make(map[string]string, len(passkeys))
	for k, v := range passkeys {
		keys[k] = v
	}
	return &Credentials{passkeys: keys, admin: adminPasskey}
}

// Worker checks an employee's passkey. Unknown names and employees without
// a passkey are rejected the same way as a wrong passkey.
func (c *Credentials) Worker(name, passkey string) (Identity, error) {
	want, ok := c.passkeys[name]
	if !ok || want == "" || !equal(want, passkey) {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Name: name, Role: RoleWorker}, nil
}

// Admin checks the admin passkey. An empty admin passkey disables admin
// sign-in.
func (c *Credentials) Admin(passkey string) (Identity, error) {
	if c.admin == "" || !equal(c.admin, passkey) {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Name: "admin", Role: RoleAdmin}, nil
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// =============================================================================
// CONTEXT
// =============================================================================

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity set by the middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
