package verifycode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"routemeet/backend/pkg/apperrors"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 15 * time.Minute

// Store issues short-lived numeric verification codes and consumes them at
// most once. Issuing overwrites any live code for the same recipient and
// purpose, so a re-request invalidates the previous email.
type Store struct {
	cache Cache
	ttl   time.Duration
}

func NewStore(cache Cache) *Store {
	return &Store{cache: cache, ttl: DefaultTTL}
}

func key(purpose, recipient string) string {
	return fmt.Sprintf("verifycode:%s:%s", purpose, recipient)
}

// Issue generates a 6-digit code for the recipient and stores it with a TTL.
func (s *Store) Issue(ctx context.Context, purpose, recipient string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to generate verification code", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	if err := s.cache.Set(ctx, key(purpose, recipient), code, s.ttl); err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to store verification code", err)
	}
	return code, nil
}

// Consume checks the submitted code against the stored one and deletes it on
// match. Expired, absent, or mismatched codes all report the same error, and
// a matched code can never be used twice.
func (s *Store) Consume(ctx context.Context, purpose, recipient, code string) error {
	k := key(purpose, recipient)
	stored, err := s.cache.Get(ctx, k)
	if err == ErrMiss {
		return apperrors.ErrCodeMismatch
	}
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to load verification code", err)
	}
	if stored != code {
		return apperrors.ErrCodeMismatch
	}
	if _, err := s.cache.Del(ctx, k); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to consume verification code", err)
	}
	return nil
}
