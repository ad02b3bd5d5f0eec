package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "auth:blacklist:"

// BlacklistRepository tracks revoked access token IDs in Redis. Entries
// expire on their own once the token they shadow would have expired anyway.
type BlacklistRepository struct {
	client *redis.Client
}

// NewBlacklistRepository constructs a BlacklistRepository.
func NewBlacklistRepository(client *redis.Client) *BlacklistRepository {
	return &BlacklistRepository{client: client}
}

// Add marks a token ID as revoked for the given TTL.
func (r *BlacklistRepository) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if r.client == nil || jti == "" || ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, blacklistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token %s: %w", jti, err)
	}
	return nil
}

// Contains reports whether a token ID has been revoked. When Redis is not
// configured every token is treated as live.
func (r *BlacklistRepository) Contains(ctx context.Context, jti string) (bool, error) {
	if r.client == nil || jti == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, blacklistKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklisted token %s: %w", jti, err)
	}
	return n > 0, nil
}
