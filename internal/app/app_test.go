package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-serverless/internal/config"
	"auth-serverless/internal/observability"
	"auth-serverless/internal/password"
	"auth-serverless/internal/user"
)

type memoryUsers struct {
	byEmail map[string]user.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: make(map[string]user.User)}
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (user.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (m *memoryUsers) UpsertByEmail(_ context.Context, email, passwordHash string) (user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		u = user.User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	}
	u.PasswordHash = passwordHash
	m.byEmail[email] = u
	return u, nil
}

func testConfig(t *testing.T, environ map[string]string) config.Config {
	t.Helper()
	base := map[string]string{"JWT_SECRET": "app-test-secret"}
	for k, v := range environ {
		base[k] = v
	}
	cfg, err := config.LoadFrom(base)
	require.NoError(t, err)
	return cfg
}

func TestSeedUser(t *testing.T) {
	users := newMemoryUsers()

	u, err := SeedUser(context.Background(), users, " Test@Test.com ", "123123")
	require.NoError(t, err)
	assert.Equal(t, "test@test.com", u.Email)
	assert.True(t, password.Comparer{}.Compare("123123", u.PasswordHash))

	_, err = SeedUser(context.Background(), users, "", "123123")
	require.Error(t, err)

	_, err = SeedUser(context.Background(), users, "a@b.com", "")
	require.ErrorIs(t, err, password.ErrEmpty)
}

func TestNewHandler_LoginUnderBasePath(t *testing.T) {
	users := newMemoryUsers()
	_, err := SeedUser(context.Background(), users, "a@b.com", "secret")
	require.NoError(t, err)

	cfg := testConfig(t, map[string]string{"API_BASE_PATH": "/api/", "APP_ENV": "production"})
	h, err := NewHandler(cfg, users, observability.NewLoggerTo(io.Discard))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.com","password":"secret"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["accessToken"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "refresh_token", cookies[0].Name)
	assert.Equal(t, "/api/auth", cookies[0].Path)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+body["accessToken"])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"a@b.com"`)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"nobody@b.com","password":"secret"}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBuild_RejectsInvalidConfig(t *testing.T) {
	_, err := Build(context.Background(), config.Config{}, Options{})
	require.Error(t, err)

	cfg := testConfig(t, nil)
	_, err = Build(context.Background(), cfg, Options{})
	require.EqualError(t, err, "missing required env: DATABASE_URL")
}

func TestPoolOptions(t *testing.T) {
	opts := PoolOptions(testConfig(t, nil))
	assert.Equal(t, 10, opts.MaxOpenConns)
	assert.Equal(t, 5, opts.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, opts.ConnMaxLifetime)
	assert.Equal(t, 10*time.Minute, opts.ConnMaxIdleTime)
}
