package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrRefreshRevoked is returned for a well-formed refresh token that was
// already rotated or logged out.
var ErrRefreshRevoked = errors.New("refresh token revoked")

// Service issues token pairs and tracks live refresh tokens in Redis so they
// can be rotated and revoked.
type Service struct {
	jwt *JWTManager
	rdb redis.Cmdable
}

func NewService(jwt *JWTManager, rdb redis.Cmdable) *Service {
	return &Service{jwt: jwt, rdb: rdb}
}

func refreshKey(userID, tokenID string) string {
	return "refresh:" + userID + ":" + tokenID
}

func (s *Service) GenerateTokens(ctx context.Context, userID, email string) (*TokenPair, error) {
	pair, tokenID, err := s.jwt.GenerateTokenPair(userID, email)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, refreshKey(userID, tokenID), "1", s.jwt.RefreshExpiry()).Err(); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}
	return pair, nil
}

// RefreshTokens swaps a live refresh token for a new pair. The old token is
// consumed atomically, so replaying it fails even under concurrency.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	err = s.rdb.GetDel(ctx, refreshKey(claims.UserID, claims.TokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRefreshRevoked
	}
	if err != nil {
		return nil, fmt.Errorf("consuming refresh token: %w", err)
	}

	return s.GenerateTokens(ctx, claims.UserID, claims.Email)
}

// Logout revokes every refresh token of the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	iter := s.rdb.Scan(ctx, 0, refreshKey(userID, "*"), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning refresh tokens: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Unlink(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoking refresh tokens: %w", err)
	}
	return nil
}

func (s *Service) ValidateAccessToken(token string) (*AccessClaims, error) {
	return s.jwt.ValidateAccessToken(token)
}

func (s *Service) JWT() *JWTManager {
	return s.jwt
}
