package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/civiclens/civiclens-backend/internal/feed/domain"
)

const issuesCollection = "issues"

// IssueRepository persists issue records in Firestore under a shared
// collection; the store assigns document ids.
type IssueRepository struct {
	client *firestore.Client
}

// NewIssueRepository creates a new IssueRepository.
func NewIssueRepository(client *firestore.Client) *IssueRepository {
	return &IssueRepository{client: client}
}

// Create writes a new issue record and returns the store-assigned id.
func (r *IssueRepository) Create(ctx context.Context, issue *domain.Issue) (string, error) {
	ref := r.client.Collection(issuesCollection).NewDoc()
	if _, err := ref.Create(ctx, issue); err != nil {
		return "", fmt.Errorf("failed to create issue: %w", err)
	}
	return ref.ID, nil
}

// IncrementUpvotes applies an atomic +1 to the stored counter. Concurrent
// upvotes from N callers converge to +N.
func (r *IssueRepository) IncrementUpvotes(ctx context.Context, id string) error {
	_, err := r.client.Collection(issuesCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "upvotes", Value: firestore.Increment(1)},
	})
	if status.Code(err) == codes.NotFound {
		return domain.ErrIssueNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to upvote issue: %w", err)
	}
	return nil
}

// Delete removes an issue record.
func (r *IssueRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Collection(issuesCollection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete issue: %w", err)
	}
	return nil
}

// Listen registers a live listener on the issues collection and invokes
// onSnapshot with the full current record set, in store arrival order, on
// every change. It blocks until ctx is cancelled; any other listener failure
// is passed to onError and ends the listen.
func (r *IssueRepository) Listen(ctx context.Context, onSnapshot func([]domain.Issue), onError func(error)) {
	snaps := r.client.Collection(issuesCollection).Snapshots(ctx)
	defer snaps.Stop()

	for {
		snap, err := snaps.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return
			}
			onError(fmt.Errorf("issues listener failed: %w", err))
			return
		}

		issues, err := decodeSnapshot(snap)
		if err != nil {
			onError(err)
			return
		}

		onSnapshot(issues)
	}
}

func decodeSnapshot(snap *firestore.QuerySnapshot) ([]domain.Issue, error) {
	issues := []domain.Issue{}
	for {
		doc, err := snap.Documents.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot document: %w", err)
		}

		var issue domain.Issue
		if err := doc.DataTo(&issue); err != nil {
			return nil, fmt.Errorf("failed to decode issue %s: %w", doc.Ref.ID, err)
		}
		issue.ID = doc.Ref.ID
		issues = append(issues, issue)
	}
	return issues, nil
}
