package service

import (
	"context"
	"errors"
	"time"

	identitydomain "github.com/civiclens/civiclens-backend/internal/identity/domain"
	"github.com/civiclens/civiclens-backend/internal/profile/domain"
)

// Store is the persistence surface the ledger needs. Satisfied by
// *repository.ProfileRepository.
type Store interface {
	Get(ctx context.Context, uid string) (*domain.ProfileAggregate, error)
	Create(ctx context.Context, agg *domain.ProfileAggregate) error
	ApplyReportAccepted(ctx context.Context, uid string, badges []string) error
	ApplyReportDeleted(ctx context.Context, uid string) error
}

// Ledger owns the points/badges/report-count aggregate for an identity.
type Ledger struct {
	store Store
	now   func() time.Time
}

// NewLedger creates a new Ledger.
func NewLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		now:   time.Now,
	}
}

// LoadOrInit reads the identity's aggregate, creating and persisting the
// zero-state first if it is absent. The create happens before returning so a
// mutation can never arrive ahead of the aggregate document.
func (l *Ledger) LoadOrInit(ctx context.Context, ident *identitydomain.Identity) (*domain.ProfileAggregate, error) {
	agg, err := l.store.Get(ctx, ident.UID)
	if err == nil {
		return agg, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}

	zero := domain.NewZeroState(ident.UID, ident.DisplayName, l.now())
	if cerr := l.store.Create(ctx, zero); cerr != nil {
		// Another session may have created it between the read and the
		// create; the document wins either way.
		if agg, rerr := l.store.Get(ctx, ident.UID); rerr == nil {
			return agg, nil
		}
		return nil, cerr
	}

	return zero, nil
}

// ApplyReportAccepted credits an accepted report: +10 points, +1 report, and
// the badge set recomputed from the post-increment count. The counters move
// atomically; the badge replace does not, which is tolerable because badges
// are a pure function of the count and only ever grow.
func (l *Ledger) ApplyReportAccepted(ctx context.Context, ident *identitydomain.Identity, current *domain.ProfileAggregate) (*domain.ProfileAggregate, error) {
	newCount := current.ReportedIssues + 1
	badges := domain.BadgesFor(newCount)

	if err := l.store.ApplyReportAccepted(ctx, ident.UID, badges); err != nil {
		return nil, err
	}

	updated := *current
	updated.Points += domain.PointsPerReport
	updated.ReportedIssues = newCount
	updated.Badges = badges
	updated.UpdatedAt = l.now()

	return &updated, nil
}

// ApplyReportDeleted reverts the credit for a deleted report. Badges are not
// recomputed: earned badges are a floor, not a live reflection of the count.
func (l *Ledger) ApplyReportDeleted(ctx context.Context, ident *identitydomain.Identity) error {
	return l.store.ApplyReportDeleted(ctx, ident.UID)
}
