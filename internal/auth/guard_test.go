package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-serverless/internal/token"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		want   string
		ok     bool
	}{
		"valid":         {"Bearer abc.def.ghi", "abc.def.ghi", true},
		"case":          {"bearer abc", "abc", true},
		"empty":         {"", "", false},
		"no scheme":     {"abc.def.ghi", "", false},
		"other scheme":  {"Basic dXNlcjpwYXNz", "", false},
		"missing token": {"Bearer ", "", false},
		"only scheme":   {"Bearer", "", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := BearerToken(tc.header)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAccessGuard(t *testing.T) {
	signer, clock := newTestSigner(t)
	guard := NewAccessGuard(signer)

	access, err := signer.Sign(token.KindAccess, token.AccessClaims(alice.ID, alice.Email), time.Minute)
	require.NoError(t, err)
	refresh, err := signer.Sign(token.KindRefresh, token.RefreshClaims(alice.ID), time.Minute)
	require.NoError(t, err)
	forged, err := signer.Sign(token.KindAccess, token.AccessClaims(alice.ID, alice.Email), time.Minute)
	require.NoError(t, err)
	forged = forged[:len(forged)-4] + "AAAA"

	request := func(header string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		return r
	}

	t.Run("valid token", func(t *testing.T) {
		id, err := guard.Check(request("Bearer " + access))
		require.NoError(t, err)
		assert.Equal(t, token.Identity{Subject: alice.ID, Email: alice.Email}, id)
	})

	t.Run("no header", func(t *testing.T) {
		_, err := guard.Check(request(""))
		require.ErrorIs(t, err, ErrMissingToken)
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("malformed header", func(t *testing.T) {
		_, err := guard.Check(request("Token " + access))
		require.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("forged token", func(t *testing.T) {
		_, err := guard.Check(request("Bearer " + forged))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh token as bearer", func(t *testing.T) {
		_, err := guard.Check(request("Bearer " + refresh))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		clock.Advance(time.Minute)
		_, err := guard.Check(request("Bearer " + access))
		require.ErrorIs(t, err, ErrInvalidToken)
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestRefreshGuard(t *testing.T) {
	signer, _ := newTestSigner(t)
	guard := NewRefreshGuard(signer, RefreshCookieName)

	refresh, err := signer.Sign(token.KindRefresh, token.RefreshClaims(alice.ID), time.Hour)
	require.NoError(t, err)
	access, err := signer.Sign(token.KindAccess, token.AccessClaims(alice.ID, alice.Email), time.Hour)
	require.NoError(t, err)

	request := func(value string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		if value != "" {
			r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: value})
		}
		return r
	}

	id, err := guard.Check(request(refresh))
	require.NoError(t, err)
	assert.Equal(t, token.Identity{Subject: alice.ID}, id)

	_, err = guard.Check(request(""))
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = guard.Check(request("garbage"))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = guard.Check(request(access))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestGuardMiddleware(t *testing.T) {
	signer, _ := newTestSigner(t)
	guard := NewAccessGuard(signer)

	var seen token.Identity
	var attached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, attached = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := guard.Middleware(next)

	t.Run("rejects without calling next", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"missing token"}`, rec.Body.String())
		assert.False(t, attached)
	})

	t.Run("invalid token message", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())
		assert.False(t, attached)
	})

	t.Run("attaches identity", func(t *testing.T) {
		raw, err := signer.Sign(token.KindAccess, token.AccessClaims(alice.ID, alice.Email), time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, attached)
		assert.Equal(t, token.Identity{Subject: alice.ID, Email: alice.Email}, seen)
	})
}

func TestIdentityFrom_Empty(t *testing.T) {
	_, ok := IdentityFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
