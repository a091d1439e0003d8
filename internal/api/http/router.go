package http

import (
	"github.com/gin-gonic/gin"

	"github.com/civiclens/civiclens-backend/internal/api/http/middleware"
)

// Handler carries the core coordinator components the API exposes.
type Handler struct {
	sessions    SessionService
	ledger      ProfileService
	feed        FeedService
	leaderboard LeaderboardService
}

// NewHandler creates a new Handler.
func NewHandler(sessions SessionService, ledger ProfileService, feed FeedService, leaderboard LeaderboardService) *Handler {
	return &Handler{
		sessions:    sessions,
		ledger:      ledger,
		feed:        feed,
		leaderboard: leaderboard,
	}
}

// Register wires the API routes. Entry paths are public; everything else
// requires a verified bearer identity.
func (h *Handler) Register(api *gin.RouterGroup, verifier middleware.TokenVerifier) {
	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Login)
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/guest", h.Guest)
	authGroup.POST("/logout", middleware.FirebaseAuth(verifier), h.Logout)
	authGroup.POST("/guest-token", middleware.FirebaseAuth(verifier), h.MintGuestToken)

	issues := api.Group("/issues")
	issues.GET("", h.ListIssues)
	issues.GET("/stream", h.StreamIssues)
	issues.POST("", middleware.FirebaseAuth(verifier), h.SubmitIssue)
	issues.POST("/:id/upvote", middleware.FirebaseAuth(verifier), h.UpvoteIssue)
	issues.DELETE("/:id", middleware.FirebaseAuth(verifier), h.DeleteIssue)

	api.GET("/profile", middleware.FirebaseAuth(verifier), h.GetProfile)
	api.GET("/leaderboard", h.GetLeaderboard)
}
