package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/civiclens/civiclens-backend/internal/identity/domain"
)

const guestTokenKeyPrefix = "auth:guest:" // One-time guest tokens: auth:guest:{code}

// GuestTokenRepository stores Admin-minted custom tokens under opaque one-time
// codes. A code is redeemable at most once and expires after the configured TTL.
type GuestTokenRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuestTokenRepository creates a new GuestTokenRepository.
func NewGuestTokenRepository(client *redis.Client, ttl time.Duration) *GuestTokenRepository {
	return &GuestTokenRepository{
		client: client,
		ttl:    ttl,
	}
}

// Mint stores the custom token and returns the opaque code that redeems it.
func (r *GuestTokenRepository) Mint(ctx context.Context, customToken string) (string, error) {
	code := uuid.New().String()

	if err := r.client.Set(ctx, r.tokenKey(code), customToken, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store guest token: %w", err)
	}

	return code, nil
}

// Redeem atomically consumes the code and returns the stored custom token.
// A second redemption of the same code fails with ErrGuestTokenUsed.
func (r *GuestTokenRepository) Redeem(ctx context.Context, code string) (string, error) {
	token, err := r.client.GetDel(ctx, r.tokenKey(code)).Result()
	if err == redis.Nil {
		return "", domain.ErrGuestTokenUsed
	}
	if err != nil {
		return "", fmt.Errorf("failed to redeem guest token: %w", err)
	}

	return token, nil
}

func (r *GuestTokenRepository) tokenKey(code string) string {
	return guestTokenKeyPrefix + code
}
