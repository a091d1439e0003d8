package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/civiclens/civiclens-backend/internal/feed/domain"
	identitydomain "github.com/civiclens/civiclens-backend/internal/identity/domain"
	profiledomain "github.com/civiclens/civiclens-backend/internal/profile/domain"
)

// Store is the remote store surface the synchronizer needs. Satisfied by
// *repository.IssueRepository.
type Store interface {
	Create(ctx context.Context, issue *domain.Issue) (string, error)
	IncrementUpvotes(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Listen(ctx context.Context, onSnapshot func([]domain.Issue), onError func(error))
}

// ProfileLedger is the slice of the profile ledger the synchronizer drives on
// submit and delete.
type ProfileLedger interface {
	LoadOrInit(ctx context.Context, ident *identitydomain.Identity) (*profiledomain.ProfileAggregate, error)
	ApplyReportAccepted(ctx context.Context, ident *identitydomain.Identity, current *profiledomain.ProfileAggregate) (*profiledomain.ProfileAggregate, error)
	ApplyReportDeleted(ctx context.Context, ident *identitydomain.Identity) error
}

var (
	ErrSubmissionInFlight = errors.New("a submission is already in progress")

	// ErrCreditFailed marks the submit inconsistency window: the issue write
	// succeeded but the profile credit did not. The issue is not rolled back.
	ErrCreditFailed = errors.New("issue submitted but profile update failed")
)

type feedSubscriber struct {
	id int
	fn func([]domain.Issue)
}

// Synchronizer owns the live, sorted view of the issue collection and the
// mutations against it. Every remote snapshot replaces the view wholesale;
// mutations follow a per-operation optimism policy: submit and upvote wait
// for the next snapshot, delete is optimistic with rollback.
type Synchronizer struct {
	store  Store
	ledger ProfileLedger
	now    func() time.Time

	mu      sync.Mutex
	arrival []domain.Issue // last snapshot, store arrival order
	view    []domain.Issue // derived sorted view
	snapGen int            // bumped on every applied snapshot
	synced  bool
	loadErr error
	subs    []feedSubscriber
	nextSub int
	started bool

	// submitting gates one in-flight submission per identity, the backend
	// counterpart of disabling the submit control while a call is outstanding.
	submitting map[string]bool

	// pubMu serializes delivery so subscribers observe snapshots and local
	// mutations in the order they were applied.
	pubMu sync.Mutex
}

// NewSynchronizer creates a new Synchronizer.
func NewSynchronizer(store Store, ledger ProfileLedger) *Synchronizer {
	return &Synchronizer{
		store:      store,
		ledger:     ledger,
		now:        time.Now,
		submitting: make(map[string]bool),
	}
}

// Start begins the single live listener on the issue collection. At most one
// listener runs per synchronizer; it ends when ctx is cancelled.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.store.Listen(ctx, s.applySnapshot, s.handleListenError)
}

// Subscribe registers for full ordered snapshots and returns a cancel handle.
// The callback receives the complete view, never a diff.
func (s *Synchronizer) Subscribe(fn func([]domain.Issue)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, feedSubscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// View returns a copy of the current ordered view.
func (s *Synchronizer) View() []domain.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Issue(nil), s.view...)
}

// LoadError reports a listener failure when the feed never managed to load.
// A stale-but-loaded view is served as-is.
func (s *Synchronizer) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.synced {
		return nil
	}
	return s.loadErr
}

// Submit validates the draft, writes the new record, then credits the
// reporter's profile. The two writes are deliberately non-transactional: when
// the credit fails the issue stays, and the caller sees ErrCreditFailed.
func (s *Synchronizer) Submit(ctx context.Context, draft domain.Draft, ident *identitydomain.Identity) (string, error) {
	if draft.Media.Kind == "" {
		draft.Media.Kind = domain.MediaNone
	}
	if err := validateDraft(draft); err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.submitting[ident.UID] {
		s.mu.Unlock()
		return "", ErrSubmissionInFlight
	}
	s.submitting[ident.UID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.submitting, ident.UID)
		s.mu.Unlock()
	}()

	issue := &domain.Issue{
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Location:    strings.TrimSpace(draft.Location),
		Coordinates: draft.Coordinates,
		Media:       draft.Media,
		Status:      domain.StatusAcknowledged,
		Upvotes:     0,
		CreatedAt:   s.now(),
		ReporterID:  ident.UID,
	}

	id, err := s.store.Create(ctx, issue)
	if err != nil {
		return "", fmt.Errorf("submit failed: %w", err)
	}

	agg, err := s.ledger.LoadOrInit(ctx, ident)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrCreditFailed, err)
	}
	if _, err := s.ledger.ApplyReportAccepted(ctx, ident, agg); err != nil {
		return id, fmt.Errorf("%w: %v", ErrCreditFailed, err)
	}

	return id, nil
}

// Upvote applies an atomic +1 to the stored counter. There is no local
// optimistic update; the next snapshot delivers the new count. Failures are
// logged, never surfaced: the operation is low-stakes and retryable.
func (s *Synchronizer) Upvote(ctx context.Context, issueID string) {
	if err := s.store.IncrementUpvotes(ctx, issueID); err != nil {
		log.Printf("[feed] upvote %s failed: %v", issueID, err)
	}
}

// Delete removes the record from the local view immediately, then issues the
// remote delete. On remote failure the view is restored to its pre-delete
// state and the error surfaces. The profile decrement runs only after the
// remote delete succeeds; its own failure is logged, not rolled back.
func (s *Synchronizer) Delete(ctx context.Context, issueID string, ident *identitydomain.Identity) error {
	s.mu.Lock()
	idx := -1
	for i, issue := range s.arrival {
		if issue.ID == issueID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return domain.ErrIssueNotFound
	}
	removed := s.arrival[idx]
	if removed.ReporterID != ident.UID {
		s.mu.Unlock()
		return domain.ErrNotReporter
	}

	s.arrival = append(append([]domain.Issue{}, s.arrival[:idx]...), s.arrival[idx+1:]...)
	s.recomputeLocked()
	gen := s.snapGen
	view := append([]domain.Issue(nil), s.view...)
	subs := s.copySubsLocked()
	s.mu.Unlock()
	s.deliver(subs, view)

	if err := s.store.Delete(ctx, issueID); err != nil {
		// Roll back to the exact pre-delete arrival position so the record
		// reappears where it was, ties included. A snapshot applied while the
		// remote delete was in flight already carries store truth (the record
		// included, since the delete failed); re-inserting over it would
		// duplicate the entry, so the snapshot wins.
		s.mu.Lock()
		if s.snapGen != gen {
			s.mu.Unlock()
			return fmt.Errorf("delete failed: %w", err)
		}
		restored := make([]domain.Issue, 0, len(s.arrival)+1)
		at := idx
		if at > len(s.arrival) {
			at = len(s.arrival)
		}
		restored = append(restored, s.arrival[:at]...)
		restored = append(restored, removed)
		restored = append(restored, s.arrival[at:]...)
		s.arrival = restored
		s.recomputeLocked()
		view := append([]domain.Issue(nil), s.view...)
		subs := s.copySubsLocked()
		s.mu.Unlock()
		s.deliver(subs, view)

		return fmt.Errorf("delete failed: %w", err)
	}

	if err := s.ledger.ApplyReportDeleted(ctx, ident); err != nil {
		log.Printf("[feed] point reversal for %s failed after delete: %v", ident.UID, err)
	}

	return nil
}

func (s *Synchronizer) applySnapshot(issues []domain.Issue) {
	s.mu.Lock()
	s.arrival = issues
	s.snapGen++
	s.recomputeLocked()
	s.synced = true
	s.loadErr = nil
	view := append([]domain.Issue(nil), s.view...)
	subs := s.copySubsLocked()
	s.mu.Unlock()

	s.deliver(subs, view)
}

func (s *Synchronizer) handleListenError(err error) {
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()
	log.Printf("[feed] %v", err)
}

func (s *Synchronizer) recomputeLocked() {
	view := append([]domain.Issue(nil), s.arrival...)
	domain.SortView(view)
	s.view = view
}

func (s *Synchronizer) copySubsLocked() []feedSubscriber {
	subs := make([]feedSubscriber, len(s.subs))
	copy(subs, s.subs)
	return subs
}

func (s *Synchronizer) deliver(subs []feedSubscriber, view []domain.Issue) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	for _, sub := range subs {
		sub.fn(append([]domain.Issue(nil), view...))
	}
}

func validateDraft(draft domain.Draft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return &domain.ValidationError{Field: "title", Reason: "is required"}
	}
	if strings.TrimSpace(draft.Description) == "" {
		return &domain.ValidationError{Field: "description", Reason: "is required"}
	}
	if strings.TrimSpace(draft.Location) == "" {
		return &domain.ValidationError{Field: "location", Reason: "is required"}
	}
	if !draft.Media.Valid() {
		return &domain.ValidationError{Field: "media", Reason: "reference is malformed"}
	}
	return nil
}
