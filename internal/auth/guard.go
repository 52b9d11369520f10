package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"auth-serverless/internal/token"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrMissingToken = fmt.Errorf("%w: missing token", ErrUnauthorized)
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthorized)
)

type Verifier interface {
	Verify(kind token.Kind, raw string) (token.Claims, error)
}

// Guard validates one kind of token taken from one place in the request.
// A request either ends up with an identity in its context or is rejected;
// there is no retry.
type Guard struct {
	verifier Verifier
	kind     token.Kind
	extract  func(*http.Request) string
}

// NewAccessGuard reads "Authorization: Bearer <token>".
func NewAccessGuard(verifier Verifier) *Guard {
	return &Guard{
		verifier: verifier,
		kind:     token.KindAccess,
		extract: func(r *http.Request) string {
			raw, _ := BearerToken(r.Header.Get("Authorization"))
			return raw
		},
	}
}

// NewRefreshGuard reads the named cookie.
func NewRefreshGuard(verifier Verifier, cookieName string) *Guard {
	return &Guard{
		verifier: verifier,
		kind:     token.KindRefresh,
		extract: func(r *http.Request) string {
			c, err := r.Cookie(cookieName)
			if err != nil {
				return ""
			}
			return c.Value
		},
	}
}

// BearerToken returns the token of a well-formed bearer header.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", false
	}
	return raw, true
}

// Validate checks an extracted token. Expired and forged tokens both come
// back as ErrInvalidToken.
func (g *Guard) Validate(raw string) (token.Identity, error) {
	if raw == "" {
		return token.Identity{}, ErrMissingToken
	}

	claims, err := g.verifier.Verify(g.kind, raw)
	if err != nil {
		return token.Identity{}, ErrInvalidToken
	}
	return claims.Identity(), nil
}

func (g *Guard) Check(r *http.Request) (token.Identity, error) {
	return g.Validate(g.extract(r))
}

func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Check(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, unauthorizedMessage(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func unauthorizedMessage(err error) string {
	if errors.Is(err, ErrMissingToken) {
		return "missing token"
	}
	return "invalid token"
}
