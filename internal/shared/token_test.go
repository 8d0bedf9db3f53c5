package shared_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stockline/stockline/internal/shared"
)

func newTokenManager(t *testing.T) (*shared.TokenManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewTokenManager(client, "test_token", "test-secret", time.Hour), mr
}

func TestTokenIssueAndResolve(t *testing.T) {
	tm, _ := newTokenManager(t)
	ctx := context.Background()

	token, err := tm.Issue(ctx, shared.Principal{UserID: 42, Role: "manager"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	p, err := tm.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, int64(42), p.UserID)
	require.Equal(t, "manager", p.Role)
}

func TestTokenResolveUnknown(t *testing.T) {
	tm, _ := newTokenManager(t)

	_, err := tm.Resolve(context.Background(), "never-issued")
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = tm.Resolve(context.Background(), "  ")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenRevoke(t *testing.T) {
	tm, _ := newTokenManager(t)
	ctx := context.Background()

	token, err := tm.Issue(ctx, shared.Principal{UserID: 7, Role: "customer"})
	require.NoError(t, err)

	require.NoError(t, tm.Revoke(ctx, token))
	_, err = tm.Resolve(ctx, token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	// Revoking twice is fine.
	require.NoError(t, tm.Revoke(ctx, token))
}

func TestTokenKeysAreHashed(t *testing.T) {
	tm, mr := newTokenManager(t)
	ctx := context.Background()

	token, err := tm.Issue(ctx, shared.Principal{UserID: 9, Role: "staff"})
	require.NoError(t, err)

	// The raw bearer token must not appear as a Redis key.
	for _, key := range mr.Keys() {
		require.NotContains(t, key, token)
	}

	// A manager with a different secret cannot resolve the token.
	other := shared.NewTokenManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_token", "other-secret", time.Hour)
	_, err = other.Resolve(ctx, token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tm := shared.NewTokenManager(client, "test_token", "test-secret", time.Minute)
	ctx := context.Background()

	token, err := tm.Issue(ctx, shared.Principal{UserID: 1, Role: "staff"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = tm.Resolve(ctx, token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
