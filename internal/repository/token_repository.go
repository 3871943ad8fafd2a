package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrTokenNotFound indicates no pending token exists for the key.
var ErrTokenNotFound = errors.New("token not found")

// TokenRepository stores short-lived magic-link token hashes in Redis.
// Tokens are single-use: Consume deletes the entry as it reads it.
type TokenRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewTokenRepository constructs a token repository.
func NewTokenRepository(client *redis.Client, logger *zap.Logger) *TokenRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenRepository{client: client, logger: logger}
}

func magicLinkKey(email string) string {
	return "magiclink:" + email
}

// Store saves the hashed token under the user's email with a TTL.
func (r *TokenRepository) Store(ctx context.Context, email, tokenHash string, ttl time.Duration) error {
	if err := r.client.Set(ctx, magicLinkKey(email), tokenHash, ttl).Err(); err != nil {
		return fmt.Errorf("store magic link token: %w", err)
	}
	return nil
}

// Consume retrieves and deletes the hashed token for the email. A second
// redemption of the same link finds nothing and fails.
func (r *TokenRepository) Consume(ctx context.Context, email string) (string, error) {
	hash, err := r.client.GetDel(ctx, magicLinkKey(email)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("consume magic link token: %w", err)
	}
	return hash, nil
}
