package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-32-chars-long!!!!!"
	testRefreshSecret = "refresh-secret-32-chars-long!!!!"
)

func TestJWTManager_AccessToken(t *testing.T) {
	mgr := NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)

	pair, tokenID, err := mgr.GenerateTokenPair("user-123", "writer@kukiwrite.test")
	require.NoError(t, err)
	assert.NotEmpty(t, tokenID)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	claims, err := mgr.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "writer@kukiwrite.test", claims.Email)
}

func TestJWTManager_RefreshToken(t *testing.T) {
	mgr := NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)

	pair, tokenID, err := mgr.GenerateTokenPair("user-456", "")
	require.NoError(t, err)

	claims, err := mgr.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, tokenID, claims.TokenID)
	assert.Equal(t, tokenID, claims.ID)
}

func TestJWTManager_Rejects(t *testing.T) {
	mgr := NewJWTManager(testAccessSecret, testRefreshSecret, 15*time.Minute, time.Hour)
	pair, _, err := mgr.GenerateTokenPair("user-789", "x@kukiwrite.test")
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := mgr.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("access token used as refresh", func(t *testing.T) {
		_, err := mgr.ValidateRefreshToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh token used as access", func(t *testing.T) {
		_, err := mgr.ValidateAccessToken(pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience signed with the access secret", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
			UserID:           "user-789",
			RegisteredClaims: mgr.registered("user-789", refreshAudience, time.Hour),
		}).SignedString([]byte(testAccessSecret))
		require.NoError(t, err)

		_, err = mgr.ValidateAccessToken(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned token", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
			UserID:           "user-789",
			RegisteredClaims: mgr.registered("user-789", accessAudience, time.Hour),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = mgr.ValidateAccessToken(none)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		mgr.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		t.Cleanup(func() { mgr.now = time.Now })

		_, err := mgr.ValidateAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
