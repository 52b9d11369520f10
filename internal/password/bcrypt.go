package password

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the cost the seed data has always been hashed with.
const DefaultCost = 10

var ErrEmpty = errors.New("password is empty")

func Hash(plaintext string, cost int) (string, error) {
	if plaintext == "" {
		return "", ErrEmpty
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Comparer checks a plaintext against a bcrypt hash. The constant-time
// comparison is bcrypt's.
type Comparer struct{}

func (Comparer) Compare(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

var (
	decoyOnce sync.Once
	decoyHash string
)

// DecoyHash is a hash of a random value nobody knows, generated on first use.
// Comparing against it costs the same as comparing against a real hash.
func DecoyHash() string {
	decoyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), DefaultCost)
		if err == nil {
			decoyHash = string(h)
		}
	})
	return decoyHash
}
