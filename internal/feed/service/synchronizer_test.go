package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/civiclens-backend/internal/feed/domain"
	identitydomain "github.com/civiclens/civiclens-backend/internal/identity/domain"
	profiledomain "github.com/civiclens/civiclens-backend/internal/profile/domain"
)

type fakeStore struct {
	mu          sync.Mutex
	created     []*domain.Issue
	createErr   error
	createGate  chan struct{} // when set, Create blocks until closed
	createEnter chan struct{} // signalled when Create is entered
	upvoted     []string
	upvoteErr   error
	deleted     []string
	deleteErr   error
	deleteHook  func() // when set, runs before Delete returns
}

func (f *fakeStore) Create(ctx context.Context, issue *domain.Issue) (string, error) {
	if f.createEnter != nil {
		f.createEnter <- struct{}{}
	}
	if f.createGate != nil {
		<-f.createGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, issue)
	return "issue-1", nil
}

func (f *fakeStore) IncrementUpvotes(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upvoted = append(f.upvoted, id)
	return f.upvoteErr
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	if f.deleteHook != nil {
		f.deleteHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) Listen(ctx context.Context, onSnapshot func([]domain.Issue), onError func(error)) {
	<-ctx.Done()
}

type fakeLedger struct {
	mu          sync.Mutex
	agg         *profiledomain.ProfileAggregate
	loadErr     error
	acceptErr   error
	deleteErr   error
	accepted    []string
	decremented []string
}

func (f *fakeLedger) LoadOrInit(ctx context.Context, ident *identitydomain.Identity) (*profiledomain.ProfileAggregate, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.agg == nil {
		f.agg = profiledomain.NewZeroState(ident.UID, ident.DisplayName, time.Now())
	}
	return f.agg, nil
}

func (f *fakeLedger) ApplyReportAccepted(ctx context.Context, ident *identitydomain.Identity, current *profiledomain.ProfileAggregate) (*profiledomain.ProfileAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acceptErr != nil {
		return nil, f.acceptErr
	}
	f.accepted = append(f.accepted, ident.UID)
	return current, nil
}

func (f *fakeLedger) ApplyReportDeleted(ctx context.Context, ident *identitydomain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.decremented = append(f.decremented, ident.UID)
	return nil
}

func newTestSynchronizer() (*Synchronizer, *fakeStore, *fakeLedger) {
	store := &fakeStore{}
	ledger := &fakeLedger{}
	s := NewSynchronizer(store, ledger)
	return s, store, ledger
}

func reporter() *identitydomain.Identity {
	return &identitydomain.Identity{UID: "user-1", Email: "u1@example.com"}
}

func validDraft() domain.Draft {
	return domain.Draft{
		Title:       "Broken streetlight",
		Description: "Lamp out on the corner",
		Location:    "5th and Main",
	}
}

func TestSubmit_Validation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*domain.Draft)
		field string
	}{
		{"empty title", func(d *domain.Draft) { d.Title = "" }, "title"},
		{"whitespace title", func(d *domain.Draft) { d.Title = "   " }, "title"},
		{"empty description", func(d *domain.Draft) { d.Description = "\t" }, "description"},
		{"empty location", func(d *domain.Draft) { d.Location = " \n" }, "location"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, store, ledger := newTestSynchronizer()

			draft := validDraft()
			tc.edit(&draft)

			_, err := s.Submit(context.Background(), draft, reporter())

			var valErr *domain.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tc.field, valErr.Field)

			// Validation failure never reaches the store or the ledger.
			assert.Empty(t, store.created)
			assert.Empty(t, ledger.accepted)
		})
	}

	t.Run("malformed media reference", func(t *testing.T) {
		s, store, _ := newTestSynchronizer()

		draft := validDraft()
		draft.Media = domain.Media{Kind: domain.MediaVideo} // no locator

		_, err := s.Submit(context.Background(), draft, reporter())

		var valErr *domain.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "media", valErr.Field)
		assert.Empty(t, store.created)
	})
}

func TestSubmit_Success(t *testing.T) {
	s, store, ledger := newTestSynchronizer()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	draft := validDraft()
	draft.Title = "  Broken streetlight  "

	id, err := s.Submit(context.Background(), draft, reporter())
	require.NoError(t, err)
	assert.Equal(t, "issue-1", id)

	require.Len(t, store.created, 1)
	issue := store.created[0]

	// Status, upvotes, createdAt and reporter are forced server-side.
	assert.Equal(t, "Broken streetlight", issue.Title)
	assert.Equal(t, domain.StatusAcknowledged, issue.Status)
	assert.Equal(t, int64(0), issue.Upvotes)
	assert.Equal(t, now, issue.CreatedAt)
	assert.Equal(t, "user-1", issue.ReporterID)
	assert.Equal(t, domain.MediaNone, issue.Media.Kind)

	assert.Equal(t, []string{"user-1"}, ledger.accepted)
}

func TestSubmit_CreditFailureKeepsIssue(t *testing.T) {
	s, store, ledger := newTestSynchronizer()
	ledger.acceptErr = errors.New("profile write refused")

	id, err := s.Submit(context.Background(), validDraft(), reporter())

	require.ErrorIs(t, err, ErrCreditFailed)
	// The issue write is not rolled back.
	assert.Equal(t, "issue-1", id)
	assert.Len(t, store.created, 1)
	assert.Empty(t, store.deleted)
}

func TestSubmit_InFlightGate(t *testing.T) {
	s, store, _ := newTestSynchronizer()
	store.createGate = make(chan struct{})
	store.createEnter = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), validDraft(), reporter())
		done <- err
	}()

	<-store.createEnter

	_, err := s.Submit(context.Background(), validDraft(), reporter())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	// A different identity is not gated by the first caller's submission.
	other := &identitydomain.Identity{UID: "user-2"}
	done2 := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), validDraft(), other)
		done2 <- err
	}()
	<-store.createEnter

	close(store.createGate)
	require.NoError(t, <-done)
	require.NoError(t, <-done2)
}

func TestApplySnapshot(t *testing.T) {
	s, _, _ := newTestSynchronizer()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var got [][]domain.Issue
	cancel := s.Subscribe(func(view []domain.Issue) {
		got = append(got, view)
	})
	defer cancel()

	s.applySnapshot([]domain.Issue{
		{ID: "a", Upvotes: 1, CreatedAt: base},
		{ID: "b", Upvotes: 4, CreatedAt: base},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0][0].ID)
	assert.Equal(t, "a", got[0][1].ID)

	// Each snapshot replaces the view wholesale.
	s.applySnapshot([]domain.Issue{{ID: "c", Upvotes: 0, CreatedAt: base}})

	require.Len(t, got, 2)
	require.Len(t, got[1], 1)
	assert.Equal(t, "c", got[1][0].ID)

	view := s.View()
	require.Len(t, view, 1)
	assert.Equal(t, "c", view[0].ID)
}

func TestSubscribeCancel(t *testing.T) {
	s, _, _ := newTestSynchronizer()

	calls := 0
	cancel := s.Subscribe(func([]domain.Issue) { calls++ })

	s.applySnapshot(nil)
	cancel()
	s.applySnapshot(nil)

	assert.Equal(t, 1, calls)
}

func TestDelete_OptimisticWithRollback(t *testing.T) {
	s, store, _ := newTestSynchronizer()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Three records with equal keys so position is decided by arrival order.
	s.applySnapshot([]domain.Issue{
		{ID: "a", Upvotes: 2, CreatedAt: base, ReporterID: "user-1"},
		{ID: "b", Upvotes: 2, CreatedAt: base, ReporterID: "user-1"},
		{ID: "c", Upvotes: 2, CreatedAt: base, ReporterID: "user-1"},
	})

	var views [][]domain.Issue
	cancel := s.Subscribe(func(view []domain.Issue) { views = append(views, view) })
	defer cancel()

	store.deleteErr = errors.New("permission denied")

	err := s.Delete(context.Background(), "b", reporter())
	require.Error(t, err)

	// Removal was published, then the rollback restored the original order.
	require.Len(t, views, 2)
	assert.Equal(t, []string{"a", "c"}, ids(views[0]))
	assert.Equal(t, []string{"a", "b", "c"}, ids(views[1]))
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.View()))
}

func TestDelete_SnapshotDuringFailedDeleteWins(t *testing.T) {
	s, store, _ := newTestSynchronizer()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []domain.Issue{
		{ID: "a", Upvotes: 2, CreatedAt: base, ReporterID: "user-1"},
		{ID: "b", Upvotes: 2, CreatedAt: base, ReporterID: "user-1"},
		{ID: "c", Upvotes: 2, CreatedAt: base, ReporterID: "user-1"},
	}
	s.applySnapshot(records)

	// The remote delete fails, but a fresh snapshot lands while it is in
	// flight. Since the delete failed, the snapshot still carries "b"; the
	// rollback must not re-insert a second copy on top of it.
	store.deleteErr = errors.New("unavailable")
	store.deleteHook = func() {
		s.applySnapshot(append([]domain.Issue(nil), records...))
	}

	err := s.Delete(context.Background(), "b", reporter())
	require.Error(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ids(s.View()))
}

func TestDelete_Success(t *testing.T) {
	s, store, ledger := newTestSynchronizer()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.applySnapshot([]domain.Issue{
		{ID: "a", Upvotes: 1, CreatedAt: base, ReporterID: "user-1"},
		{ID: "b", Upvotes: 0, CreatedAt: base, ReporterID: "user-1"},
	})

	err := s.Delete(context.Background(), "a", reporter())
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, store.deleted)
	assert.Equal(t, []string{"b"}, ids(s.View()))
	assert.Equal(t, []string{"user-1"}, ledger.decremented)
}

func TestDelete_DecrementFailureIsAccepted(t *testing.T) {
	s, store, ledger := newTestSynchronizer()
	ledger.deleteErr = errors.New("profile write refused")

	s.applySnapshot([]domain.Issue{{ID: "a", ReporterID: "user-1"}})

	// The record stays deleted even though the point reversal failed.
	err := s.Delete(context.Background(), "a", reporter())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, store.deleted)
	assert.Empty(t, s.View())
}

func TestDelete_Authorization(t *testing.T) {
	s, store, _ := newTestSynchronizer()
	s.applySnapshot([]domain.Issue{{ID: "a", ReporterID: "someone-else"}})

	t.Run("only the reporter may delete", func(t *testing.T) {
		err := s.Delete(context.Background(), "a", reporter())
		assert.ErrorIs(t, err, domain.ErrNotReporter)
		assert.Empty(t, store.deleted)
		assert.Equal(t, []string{"a"}, ids(s.View()))
	})

	t.Run("unknown record", func(t *testing.T) {
		err := s.Delete(context.Background(), "missing", reporter())
		assert.ErrorIs(t, err, domain.ErrIssueNotFound)
	})
}

func TestUpvote_FailureIsSwallowed(t *testing.T) {
	s, store, _ := newTestSynchronizer()
	store.upvoteErr = errors.New("unavailable")

	s.Upvote(context.Background(), "a")

	// The attempt was made; the caller sees nothing.
	assert.Equal(t, []string{"a"}, store.upvoted)
}

func TestLoadError(t *testing.T) {
	s, _, _ := newTestSynchronizer()

	s.handleListenError(errors.New("listener broke"))
	assert.Error(t, s.LoadError())

	// A stale-but-loaded view is not a load failure.
	s.applySnapshot(nil)
	assert.NoError(t, s.LoadError())
}

func ids(issues []domain.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.ID)
	}
	return out
}
