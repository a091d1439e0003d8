package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	feeddomain "github.com/civiclens/civiclens-backend/internal/feed/domain"
	feedservice "github.com/civiclens/civiclens-backend/internal/feed/service"
	identitydomain "github.com/civiclens/civiclens-backend/internal/identity/domain"
)

// FeedService is the synchronizer surface the issue handlers use.
type FeedService interface {
	View() []feeddomain.Issue
	LoadError() error
	Subscribe(fn func([]feeddomain.Issue)) (cancel func())
	Submit(ctx context.Context, draft feeddomain.Draft, ident *identitydomain.Identity) (string, error)
	Upvote(ctx context.Context, issueID string)
	Delete(ctx context.Context, issueID string, ident *identitydomain.Identity) error
}

// ListIssues returns the current ordered feed view. An empty feed is an empty
// list, not an error.
func (h *Handler) ListIssues(c *gin.Context) {
	if err := h.feed.LoadError(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load issues feed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"issues": h.feed.View()})
}

// SubmitIssue validates and submits a new issue report.
func (h *Handler) SubmitIssue(c *gin.Context) {
	ident, ok := identityFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req submitIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	id, err := h.feed.Submit(c.Request.Context(), req.toDraft(), ident)
	if err != nil {
		var valErr *feeddomain.ValidationError
		switch {
		case errors.As(err, &valErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error()})
		case errors.Is(err, feedservice.ErrSubmissionInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "a submission is already in progress"})
		default:
			// Covers both the failed write and the credit inconsistency
			// window; either way the user sees a generic submission failure.
			c.JSON(http.StatusInternalServerError, gin.H{"error": "submission failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpvoteIssue applies an atomic +1 to the issue counter. Failures are logged
// server-side and never surfaced; the next snapshot carries the truth.
func (h *Handler) UpvoteIssue(c *gin.Context) {
	if _, ok := identityFromCtx(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	issueID := c.Param("id")
	if issueID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "issue ID is required"})
		return
	}

	h.feed.Upvote(c.Request.Context(), issueID)

	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// DeleteIssue deletes the caller's own issue, optimistically in the local
// view with rollback on remote failure.
func (h *Handler) DeleteIssue(c *gin.Context) {
	ident, ok := identityFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	issueID := c.Param("id")
	if issueID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "issue ID is required"})
		return
	}

	if err := h.feed.Delete(c.Request.Context(), issueID, ident); err != nil {
		switch {
		case errors.Is(err, feeddomain.ErrIssueNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
		case errors.Is(err, feeddomain.ErrNotReporter):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the reporter may delete an issue"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete issue"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
