package verifycode

import (
	"context"
	"regexp"
	"testing"
	"time"

	"routemeet/backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

// fakeCache is an in-memory Cache with real TTL semantics, checked lazily
// on Get the way redis expiry is observed by clients.
type fakeCache struct {
	entries map[string]fakeEntry
	now     time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]fakeEntry{}, now: time.Now()}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	e, ok := c.entries[key]
	if !ok || c.now.After(e.expiresAt) {
		return "", ErrMiss
	}
	return e.value, nil
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.entries[key] = fakeEntry{value: value, expiresAt: c.now.Add(ttl)}
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) (int64, error) {
	var removed int64
	for _, k := range keys {
		if _, ok := c.entries[k]; ok {
			delete(c.entries, k)
			removed++
		}
	}
	return removed, nil
}

func (c *fakeCache) Close() error { return nil }

func TestIssue(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	store := NewStore(cache)

	code, err := store.Issue(ctx, "password-reset", "user@example.com")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	t.Run("reissuing replaces the previous code", func(t *testing.T) {
		replacement, err := store.Issue(ctx, "password-reset", "user@example.com")
		require.NoError(t, err)

		if code != replacement {
			assert.ErrorIs(t,
				store.Consume(ctx, "password-reset", "user@example.com", code),
				apperrors.ErrCodeMismatch)
		}
		assert.NoError(t, store.Consume(ctx, "password-reset", "user@example.com", replacement))
	})
}

func TestConsume(t *testing.T) {
	ctx := context.Background()

	t.Run("a matched code is single-use", func(t *testing.T) {
		cache := newFakeCache()
		store := NewStore(cache)

		code, err := store.Issue(ctx, "password-reset", "user@example.com")
		require.NoError(t, err)

		require.NoError(t, store.Consume(ctx, "password-reset", "user@example.com", code))
		assert.ErrorIs(t,
			store.Consume(ctx, "password-reset", "user@example.com", code),
			apperrors.ErrCodeMismatch)
	})

	t.Run("wrong code does not consume the stored one", func(t *testing.T) {
		cache := newFakeCache()
		store := NewStore(cache)

		code, err := store.Issue(ctx, "password-reset", "user@example.com")
		require.NoError(t, err)

		assert.ErrorIs(t,
			store.Consume(ctx, "password-reset", "user@example.com", "000000a"),
			apperrors.ErrCodeMismatch)
		assert.NoError(t, store.Consume(ctx, "password-reset", "user@example.com", code))
	})

	t.Run("expired code reads as a mismatch", func(t *testing.T) {
		cache := newFakeCache()
		store := NewStore(cache)

		code, err := store.Issue(ctx, "password-reset", "user@example.com")
		require.NoError(t, err)

		cache.now = cache.now.Add(DefaultTTL + time.Second)
		assert.ErrorIs(t,
			store.Consume(ctx, "password-reset", "user@example.com", code),
			apperrors.ErrCodeMismatch)
	})

	t.Run("codes are scoped per recipient and purpose", func(t *testing.T) {
		cache := newFakeCache()
		store := NewStore(cache)

		code, err := store.Issue(ctx, "password-reset", "a@example.com")
		require.NoError(t, err)

		assert.ErrorIs(t,
			store.Consume(ctx, "password-reset", "b@example.com", code),
			apperrors.ErrCodeMismatch)
		assert.ErrorIs(t,
			store.Consume(ctx, "email-verify", "a@example.com", code),
			apperrors.ErrCodeMismatch)
	})
}
