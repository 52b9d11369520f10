package token

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Pair is minted atomically: either both tokens are returned or neither.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

type signer interface {
	Sign(kind Kind, claims Claims, ttl time.Duration) (string, error)
}

type Issuer struct {
	signer     signer
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer falls back to the default TTLs for non-positive durations.
func NewIssuer(signer signer, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}

	return &Issuer{
		signer:     signer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// Issue signs the access token {sub, email} and the refresh token {sub}
// concurrently and joins before returning.
func (i *Issuer) Issue(ctx context.Context, subject, email string) (Pair, error) {
	if subject == "" {
		return Pair{}, fmt.Errorf("issue tokens: empty subject")
	}

	var pair Pair
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		signed, err := i.signer.Sign(KindAccess, AccessClaims(subject, email), i.accessTTL)
		if err != nil {
			return fmt.Errorf("access token: %w", err)
		}
		pair.AccessToken = signed
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		signed, err := i.signer.Sign(KindRefresh, RefreshClaims(subject), i.refreshTTL)
		if err != nil {
			return fmt.Errorf("refresh token: %w", err)
		}
		pair.RefreshToken = signed
		return nil
	})

	if err := g.Wait(); err != nil {
		return Pair{}, fmt.Errorf("issue tokens: %w", err)
	}
	return pair, nil
}
