package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/civiclens/civiclens-backend/internal/leaderboard/domain"
)

const (
	rankingKey = "leaderboard:points" // Sorted set: uid scored by points
	namesKey   = "leaderboard:names"  // Hash: uid -> display name
)

// CacheRepository keeps the ranked leaderboard in Redis.
type CacheRepository struct {
	client *redis.Client
}

// NewCacheRepository creates a new CacheRepository.
func NewCacheRepository(client *redis.Client) *CacheRepository {
	return &CacheRepository{client: client}
}

// Replace rewrites the whole ranking in one pipeline.
func (r *CacheRepository) Replace(ctx context.Context, entries []domain.Entry) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, rankingKey, namesKey)

	if len(entries) > 0 {
		members := make([]redis.Z, 0, len(entries))
		names := make(map[string]string, len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{Score: float64(e.Points), Member: e.UID})
			if e.DisplayName != "" {
				names[e.UID] = e.DisplayName
			}
		}
		pipe.ZAdd(ctx, rankingKey, members...)
		if len(names) > 0 {
			pipe.HSet(ctx, namesKey, names)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace leaderboard: %w", err)
	}
	return nil
}

// Top returns the highest-scoring entries, best first.
func (r *CacheRepository) Top(ctx context.Context, n int) ([]domain.Entry, error) {
	ranked, err := r.client.ZRevRangeWithScores(ctx, rankingKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	names, err := r.client.HGetAll(ctx, namesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard names: %w", err)
	}

	entries := make([]domain.Entry, 0, len(ranked))
	for _, z := range ranked {
		uid, _ := z.Member.(string)
		entries = append(entries, domain.Entry{
			UID:         uid,
			DisplayName: names[uid],
			Points:      int64(z.Score),
		})
	}
	return entries, nil
}
