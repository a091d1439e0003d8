package service

import (
	"context"
	"sort"

	"github.com/civiclens/civiclens-backend/internal/leaderboard/domain"
	profiledomain "github.com/civiclens/civiclens-backend/internal/profile/domain"
)

// ProfileSource lists profile aggregates; satisfied by the profile repository.
type ProfileSource interface {
	ListAll(ctx context.Context) ([]*profiledomain.ProfileAggregate, error)
}

// Cache holds the ranked read model; satisfied by *repository.CacheRepository.
type Cache interface {
	Replace(ctx context.Context, entries []domain.Entry) error
	Top(ctx context.Context, n int) ([]domain.Entry, error)
}

// Service recomputes and serves the points leaderboard.
type Service struct {
	profiles ProfileSource
	cache    Cache
	size     int
}

// NewService creates a new leaderboard Service. size caps how many entries
// Top returns.
func NewService(profiles ProfileSource, cache Cache, size int) *Service {
	return &Service{
		profiles: profiles,
		cache:    cache,
		size:     size,
	}
}

// Refresh rebuilds the cached ranking from the profile aggregates.
func (s *Service) Refresh(ctx context.Context) error {
	aggs, err := s.profiles.ListAll(ctx)
	if err != nil {
		return err
	}

	entries := make([]domain.Entry, 0, len(aggs))
	for _, agg := range aggs {
		entries = append(entries, domain.Entry{
			UID:         agg.UID,
			DisplayName: agg.DisplayName,
			Points:      agg.Points,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Points > entries[j].Points })

	return s.cache.Replace(ctx, entries)
}

// Top returns the current ranking, best first.
func (s *Service) Top(ctx context.Context) ([]domain.Entry, error) {
	return s.cache.Top(ctx, s.size)
}
