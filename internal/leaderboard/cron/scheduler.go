package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/civiclens/civiclens-backend/internal/leaderboard/service"
)

const refreshTimeout = 30 * time.Second

// Scheduler periodically rebuilds the leaderboard cache.
type Scheduler struct {
	svc  *service.Service
	spec string
	cron *cron.Cron
}

// NewScheduler creates a Scheduler running the given six-field cron spec.
func NewScheduler(svc *service.Service, spec string) *Scheduler {
	return &Scheduler{svc: svc, spec: spec}
}

// Start initializes the cron task and runs one refresh immediately so the
// endpoint is warm before the first tick.
func (s *Scheduler) Start() {
	s.cron = cron.New(cron.WithSeconds())

	_, err := s.cron.AddFunc(s.spec, s.refresh)
	if err != nil {
		log.Printf("Failed to create leaderboard cron job: %v", err)
		return
	}

	log.Printf("Leaderboard scheduler started (spec %q)", s.spec)
	s.cron.Start()

	go s.refresh()
}

// Stop halts scheduling; a running refresh finishes on its own.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.svc.Refresh(ctx); err != nil {
		log.Printf("Leaderboard refresh failed: %v", err)
	}
}
