package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/civiclens/civiclens-backend/internal/api/http"
	"github.com/civiclens/civiclens-backend/internal/api/http/middleware"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	Verifier       middleware.TokenVerifier
	Sessions       httpapi.SessionService
	Ledger         httpapi.ProfileService
	Feed           httpapi.FeedService
	Leaderboard    httpapi.LeaderboardService
	Cache          *redis.Client
	RateLimiter    *middleware.RateLimiter
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Cache)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestID())
	if dep.RateLimiter != nil {
		api.Use(dep.RateLimiter.Middleware())
	}

	handler := httpapi.NewHandler(dep.Sessions, dep.Ledger, dep.Feed, dep.Leaderboard)
	handler.Register(api, dep.Verifier)

	return r
}
