package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worklog/auth"
)

func newTokens(t *testing.T) *auth.Tokens {
	t.Helper()
	tok, err := auth.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)
	tok.Now = func() time.Time { return time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC) }
	return tok
}

func TestTokens_IssueVerify(t *testing.T) {
	tok := newTokens(t)

	signed, expires, err := tok.Issue(auth.Identity{Name: "Emily", Role: auth.RoleWorker})
	require.NoError(t, err)
	assert.Equal(t, tok.Now().Add(time.Hour), expires)

	id, err := tok.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "Emily", id.Name)
	assert.False(t, id.IsAdmin())
}

func TestTokens_Rejects(t *testing.T) {
	tok := newTokens(t)
	signed, _, err := tok.Issue(auth.Identity{Name: "Emily", Role: auth.RoleWorker})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newTokens(t)
		later.Now = func() time.Time { return tok.Now().Add(2 * time.Hour) }
		_, err := later.Verify(signed)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := auth.NewTokens("another-secret", time.Hour)
		require.NoError(t, err)
		other.Now = tok.Now
		_, err = other.Verify(signed)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tok.Verify("not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := auth.Claims{
			Identity: auth.Identity{Name: "Mallory", Role: "owner"},
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    auth.Issuer,
				ExpiresAt: jwt.NewNumericDate(tok.Now().Add(time.Hour)),
			},
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = tok.Verify(forged)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestNewTokens_EmptySecret(t *testing.T) {
	_, err := auth.NewTokens("", time.Hour)
	assert.ErrorIs(t, err, auth.ErrNoSecret)
}

func TestCredentials(t *testing.T) {
	creds := auth.NewCredentials(map[string]string{"Emily": "kali", "Greg": ""}, "office")

	id, err := creds.Worker("Emily", "kali")
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Name: "Emily", Role: auth.RoleWorker}, id)

	_, err = creds.Worker("Emily", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = creds.Worker("Greg", "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials, "blank passkey never matches")
	_, err = creds.Worker("Nobody", "kali")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	admin, err := creds.Admin("office")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	_, err = auth.NewCredentials(nil, "").Admin("")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials, "admin disabled without passkey")
}

func TestMiddleware(t *testing.T) {
	tok := newTokens(t)
	worker, _, err := tok.Issue(auth.Identity{Name: "Emily", Role: auth.RoleWorker})
	require.NoError(t, err)
	admin, _, err := tok.Issue(auth.Identity{Name: "admin", Role: auth.RoleAdmin})
	require.NoError(t, err)

	var seen auth.Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	adminOnly := tok.Middleware(auth.RequireRole(auth.RoleAdmin)(inner))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		h      http.Handler
		status int
	}{
		{"no token", func(r *http.Request) {}, tok.Middleware(inner), http.StatusUnauthorized},
		{"bad scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, tok.Middleware(inner), http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+worker) }, tok.Middleware(inner), http.StatusNoContent},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: worker}) }, tok.Middleware(inner), http.StatusNoContent},
		{"worker on admin route", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+worker) }, adminOnly, http.StatusForbidden},
		{"admin on admin route", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+admin) }, adminOnly, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			tt.h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+worker)
	tok.Middleware(inner).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "Emily", seen.Name)
}
