package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/civiclens/civiclens-backend/internal/profile/domain"
)

const profilesCollection = "profiles"

// ProfileRepository persists profile aggregates in Firestore, keyed by uid.
// Points and reportedIssues only ever move via atomic increments so that
// concurrent updates from the same identity across devices converge.
type ProfileRepository struct {
	client *firestore.Client
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(client *firestore.Client) *ProfileRepository {
	return &ProfileRepository{client: client}
}

// Get retrieves the aggregate for a uid. A missing document is reported as
// ErrProfileNotFound, distinct from read failures.
func (r *ProfileRepository) Get(ctx context.Context, uid string) (*domain.ProfileAggregate, error) {
	snap, err := r.doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var agg domain.ProfileAggregate
	if err := snap.DataTo(&agg); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	agg.UID = uid

	return &agg, nil
}

// Create persists a new aggregate. Fails if the document already exists, so a
// concurrent lazy-init loses cleanly instead of overwriting counters.
func (r *ProfileRepository) Create(ctx context.Context, agg *domain.ProfileAggregate) error {
	if _, err := r.doc(agg.UID).Create(ctx, agg); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// ApplyReportAccepted credits an accepted report: points and reportedIssues
// move by atomic increments, badges are replaced wholesale with the
// recomputed set.
func (r *ProfileRepository) ApplyReportAccepted(ctx context.Context, uid string, badges []string) error {
	_, err := r.doc(uid).Update(ctx, []firestore.Update{
		{Path: "points", Value: firestore.Increment(domain.PointsPerReport)},
		{Path: "reportedIssues", Value: firestore.Increment(1)},
		{Path: "badges", Value: badges},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to apply report credit: %w", err)
	}
	return nil
}

// ApplyReportDeleted reverts the credit for a deleted report. Badges are left
// untouched.
func (r *ProfileRepository) ApplyReportDeleted(ctx context.Context, uid string) error {
	_, err := r.doc(uid).Update(ctx, []firestore.Update{
		{Path: "points", Value: firestore.Increment(-domain.PointsPerReport)},
		{Path: "reportedIssues", Value: firestore.Increment(-1)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to revert report credit: %w", err)
	}
	return nil
}

// ListAll streams every profile aggregate, used by the leaderboard refresh.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]*domain.ProfileAggregate, error) {
	snaps, err := r.client.Collection(profilesCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	out := make([]*domain.ProfileAggregate, 0, len(snaps))
	for _, snap := range snaps {
		var agg domain.ProfileAggregate
		if err := snap.DataTo(&agg); err != nil {
			return nil, fmt.Errorf("failed to decode profile %s: %w", snap.Ref.ID, err)
		}
		agg.UID = snap.Ref.ID
		out = append(out, &agg)
	}

	return out, nil
}

func (r *ProfileRepository) doc(uid string) *firestore.DocumentRef {
	return r.client.Collection(profilesCollection).Doc(uid)
}
