package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mgr := NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, time.Hour)
	return NewService(mgr, client), mr
}

func TestService_RefreshRotatesToken(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	pair, err := svc.GenerateTokens(ctx, "user-1", "one@kukiwrite.test")
	require.NoError(t, err)

	refreshed, err := svc.RefreshTokens(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "one@kukiwrite.test", claims.Email)

	_, err = svc.RefreshTokens(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}

func TestService_RefreshTokenTTL(t *testing.T) {
	svc, mr := setupService(t)

	_, err := svc.GenerateTokens(context.Background(), "user-ttl", "")
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Hour, mr.TTL(keys[0]))
}

func TestService_LogoutRevokesAll(t *testing.T) {
	svc, mr := setupService(t)
	ctx := context.Background()

	p1, err := svc.GenerateTokens(ctx, "user-2", "two@kukiwrite.test")
	require.NoError(t, err)
	p2, err := svc.GenerateTokens(ctx, "user-2", "two@kukiwrite.test")
	require.NoError(t, err)
	_, err = svc.GenerateTokens(ctx, "user-3", "three@kukiwrite.test")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "user-2"))

	_, err = svc.RefreshTokens(ctx, p1.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshRevoked)
	_, err = svc.RefreshTokens(ctx, p2.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshRevoked)
	assert.Len(t, mr.Keys(), 1, "other users keep their sessions")
}

func TestService_LogoutWithoutSessions(t *testing.T) {
	svc, _ := setupService(t)
	assert.NoError(t, svc.Logout(context.Background(), "nobody"))
}
