package auth

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"auth-serverless/internal/token"
	"auth-serverless/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = user.ErrNotFound
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
}

type PasswordComparer interface {
	Compare(plaintext, hash string) bool
}

type TokenIssuer interface {
	Issue(ctx context.Context, subject, email string) (token.Pair, error)
}

// Service verifies credentials and mints token pairs. It keeps no per-request
// state and is safe for concurrent use.
type Service struct {
	users     UserStore
	passwords PasswordComparer
	issuer    TokenIssuer
	decoyHash string
	tracer    trace.Tracer
}

type ServiceOption func(*Service)

// WithDecoyHash makes SignIn run one comparison against hash when the email is
// unknown, so both failure paths cost roughly the same.
func WithDecoyHash(hash string) ServiceOption {
	return func(s *Service) {
		s.decoyHash = hash
	}
}

func NewService(users UserStore, passwords PasswordComparer, issuer TokenIssuer, opts ...ServiceOption) *Service {
	s := &Service{
		users:     users,
		passwords: passwords,
		issuer:    issuer,
		tracer:    otel.Tracer("auth-serverless/internal/auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignIn returns ErrNotFound for an unknown email and ErrInvalidCredentials
// for a wrong password. The HTTP layer answers both with the same 401.
func (s *Service) SignIn(ctx context.Context, email, password string) (token.Pair, error) {
	ctx, span := s.tracer.Start(ctx, "auth.SignIn")
	defer span.End()

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if s.decoyHash != "" {
				s.passwords.Compare(password, s.decoyHash)
			}
			span.SetStatus(codes.Error, "user not found")
			return token.Pair{}, ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "find user failed")
		return token.Pair{}, fmt.Errorf("find user by email: %w", err)
	}

	if !s.passwords.Compare(password, u.PasswordHash) {
		span.SetStatus(codes.Error, "password mismatch")
		return token.Pair{}, ErrInvalidCredentials
	}

	span.SetAttributes(attribute.String("user.id", u.ID))
	return s.issue(ctx, span, u)
}

// UpdateTokens trusts that subject comes from an already verified refresh
// token. The user is looked up again so the new access token carries the
// current email, and rotation fails for deleted accounts.
func (s *Service) UpdateTokens(ctx context.Context, subject string) (token.Pair, error) {
	ctx, span := s.tracer.Start(ctx, "auth.UpdateTokens", trace.WithAttributes(attribute.String("user.id", subject)))
	defer span.End()

	u, err := s.users.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			span.SetStatus(codes.Error, "user not found")
			return token.Pair{}, ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "find user failed")
		return token.Pair{}, fmt.Errorf("find user by id: %w", err)
	}

	return s.issue(ctx, span, u)
}

func (s *Service) issue(ctx context.Context, span trace.Span, u user.User) (token.Pair, error) {
	pair, err := s.issuer.Issue(ctx, u.ID, u.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "issue tokens failed")
		return token.Pair{}, err
	}
	return pair, nil
}
