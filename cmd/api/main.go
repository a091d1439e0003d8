package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civiclens/civiclens-backend/config"
	"github.com/civiclens/civiclens-backend/internal/api/http/middleware"
	"github.com/civiclens/civiclens-backend/internal/bootstrap"
	feedrepo "github.com/civiclens/civiclens-backend/internal/feed/repository"
	feedservice "github.com/civiclens/civiclens-backend/internal/feed/service"
	"github.com/civiclens/civiclens-backend/internal/identity/firebaseauth"
	identityrepo "github.com/civiclens/civiclens-backend/internal/identity/repository"
	identityservice "github.com/civiclens/civiclens-backend/internal/identity/service"
	cronjob "github.com/civiclens/civiclens-backend/internal/leaderboard/cron"
	leaderboardrepo "github.com/civiclens/civiclens-backend/internal/leaderboard/repository"
	leaderboardservice "github.com/civiclens/civiclens-backend/internal/leaderboard/service"
	"github.com/civiclens/civiclens-backend/internal/platform/firebase"
	profilerepo "github.com/civiclens/civiclens-backend/internal/profile/repository"
	profileservice "github.com/civiclens/civiclens-backend/internal/profile/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fb, err := firebase.Initialize(ctx, &cfg.Firebase)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}
	defer fb.Close()

	cache, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer cache.Close()

	authAPI := firebaseauth.NewClient(cfg.Firebase.AuthEndpoint, cfg.Firebase.WebAPIKey)
	guestTokens := identityrepo.NewGuestTokenRepository(cache, cfg.Guest.TokenTTL)
	sessions := identityservice.NewSessionManager(authAPI, fb.Auth, guestTokens)

	profiles := profilerepo.NewProfileRepository(fb.Firestore)
	ledger := profileservice.NewLedger(profiles)

	issues := feedrepo.NewIssueRepository(fb.Firestore)
	feed := feedservice.NewSynchronizer(issues, ledger)
	feed.Start(ctx)

	lbCache := leaderboardrepo.NewCacheRepository(cache)
	leaderboard := leaderboardservice.NewService(profiles, lbCache, cfg.Leaderboard.Size)

	scheduler := cronjob.NewScheduler(leaderboard, cfg.Leaderboard.CronSpec)
	scheduler.Start()
	defer scheduler.Stop()

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer limiter.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "civiclens-backend",
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Verifier:       fb.Auth,
		Sessions:       sessions,
		Ledger:         ledger,
		Feed:           feed,
		Leaderboard:    leaderboard,
		Cache:          cache,
		RateLimiter:    limiter,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
