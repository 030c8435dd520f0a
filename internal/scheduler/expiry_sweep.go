// Package scheduler runs periodic background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/config"
)

// LoanSweeper revokes loans whose return date has passed.
type LoanSweeper interface {
	RevokeExpired() (int64, error)
}

// ExpirySweepScheduler periodically revokes expired loans. The sweep is
// idempotent, so overlapping or repeated runs are harmless; a simple
// isSweeping flag still keeps runs from piling up.
type ExpirySweepScheduler struct {
	sweeper      LoanSweeper
	auditService *audit.Service
	cfg          config.Maintenance

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSweeping bool
	cancelFunc context.CancelFunc
}

// NewExpirySweepScheduler creates a new scheduler instance.
func NewExpirySweepScheduler(sweeper LoanSweeper, auditService *audit.Service, cfg config.Maintenance) *ExpirySweepScheduler {
	return &ExpirySweepScheduler{
		sweeper:      sweeper,
		auditService: auditService,
		cfg:          cfg,
		cron:         cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if the sweep is enabled.
func (s *ExpirySweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.SweepEnabled {
		log.Printf("Expiry sweep scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.cfg.SweepSchedule, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule '%s': %w", s.cfg.SweepSchedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Expiry sweep scheduler: started with schedule '%s'", s.cfg.SweepSchedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep to
// complete.
func (s *ExpirySweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Expiry sweep scheduler: stopped")
}

// RunNow triggers an immediate sweep.
func (s *ExpirySweepScheduler) RunNow() {
	go s.runSweep()
}

// IsRunning returns whether the scheduler is active.
func (s *ExpirySweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next sweep will occur.
func (s *ExpirySweepScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSweep performs the actual sweep.
func (s *ExpirySweepScheduler) runSweep() {
	s.mu.Lock()
	if s.isSweeping {
		s.mu.Unlock()
		log.Printf("Expiry sweep: skipped (already running)")
		return
	}
	s.isSweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSweeping = false
		s.mu.Unlock()
	}()

	startTime := time.Now()
	revoked, err := s.sweeper.RevokeExpired()

	if s.auditService != nil {
		s.auditService.LogSweep(revoked, err)
	}

	if err != nil {
		log.Printf("Expiry sweep: failed: %v", err)
		return
	}

	if revoked > 0 {
		log.Printf("Expiry sweep: revoked %d expired loans in %v",
			revoked, time.Since(startTime).Round(time.Millisecond))
	}
}
