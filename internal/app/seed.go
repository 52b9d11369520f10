package app

import (
	"context"
	"errors"
	"strings"

	"auth-serverless/internal/password"
	"auth-serverless/internal/user"
)

type userUpserter interface {
	UpsertByEmail(ctx context.Context, email, passwordHash string) (user.User, error)
}

// SeedUser creates the user or resets its password.
func SeedUser(ctx context.Context, users userUpserter, email, plaintext string) (user.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return user.User{}, errors.New("seed email is empty")
	}

	hash, err := password.Hash(plaintext, password.DefaultCost)
	if err != nil {
		return user.User{}, err
	}
	return users.UpsertByEmail(ctx, email, hash)
}
