package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	identitydomain "github.com/civiclens/civiclens-backend/internal/identity/domain"
	leaderboarddomain "github.com/civiclens/civiclens-backend/internal/leaderboard/domain"
	profiledomain "github.com/civiclens/civiclens-backend/internal/profile/domain"
)

// ProfileService is the ledger surface the profile handler uses.
type ProfileService interface {
	LoadOrInit(ctx context.Context, ident *identitydomain.Identity) (*profiledomain.ProfileAggregate, error)
}

// LeaderboardService serves the cached points ranking.
type LeaderboardService interface {
	Top(ctx context.Context) ([]leaderboarddomain.Entry, error)
}

// GetProfile returns the caller's profile aggregate, creating the zero-state
// document on first read.
func (h *Handler) GetProfile(c *gin.Context) {
	ident, ok := identityFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	agg, err := h.ledger.LoadOrInit(c.Request.Context(), ident)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": agg})
}

// GetLeaderboard returns the current top-N points ranking.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	entries, err := h.leaderboard.Top(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
