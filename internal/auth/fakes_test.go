package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"auth-serverless/internal/token"
	"auth-serverless/internal/user"
)

const testSecret = "unit-test-secret"

type fakeStore struct {
	mu    sync.Mutex
	users map[string]user.User
	err   error
}

func newFakeStore(users ...user.User) *fakeStore {
	s := &fakeStore{users: make(map[string]user.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return user.User{}, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (s *fakeStore) FindByID(_ context.Context, id string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return user.User{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) put(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *fakeStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// fakeComparer treats "hash:<plaintext>" as the hash of plaintext.
type fakeComparer struct {
	mu     sync.Mutex
	hashes []string
}

func (c *fakeComparer) Compare(plaintext, hash string) bool {
	c.mu.Lock()
	c.hashes = append(c.hashes, hash)
	c.mu.Unlock()
	return hash == "hash:"+plaintext
}

type failingIssuer struct{}

func (failingIssuer) Issue(context.Context, string, string) (token.Pair, error) {
	return token.Pair{}, errors.New("signer unavailable")
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestSigner(t *testing.T) (*token.Signer, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	s, err := token.NewSigner(testSecret, token.WithClock(clock.Now))
	require.NoError(t, err)
	return s, clock
}

var alice = user.User{
	ID:           "0195a1f2-0000-7000-8000-000000000001",
	Email:        "a@b.com",
	PasswordHash: "hash:secret",
	CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
}
