package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/Wikid82/warden/backend/internal/models"
)

// UnblockSweeper reverts auto-blocks whose persisted expiry has passed. It
// runs on a cron schedule and re-arms in-process timers after a restart.
type UnblockSweeper struct {
	registry  *IPRegistryService
	scheduler *UnblockScheduler
	decisions *DecisionLog
	notifier  *Notifier
	schedule  string
	now       func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func NewUnblockSweeper(schedule string, registry *IPRegistryService, scheduler *UnblockScheduler, decisions *DecisionLog, notifier *Notifier) *UnblockSweeper {
	return &UnblockSweeper{
		registry:  registry,
		scheduler: scheduler,
		decisions: decisions,
		notifier:  notifier,
		schedule:  schedule,
		now:       utcNow,
	}
}

// Start registers the sweep with cron and starts it.
func (s *UnblockSweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	cronLog := cron.PrintfLogger(logger.Log().WithField("component", "unblock_sweeper"))
	c := cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(); err != nil {
			logger.Log().WithError(err).Error("unblock sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule unblock sweep %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the cron scheduler and waits for a running sweep to finish.
func (s *UnblockSweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Sweep releases every expired auto-block and returns how many were reverted.
func (s *UnblockSweeper) Sweep() (int, error) {
	expired, err := s.registry.ExpiredAutoBlocks(s.now())
	if err != nil {
		return 0, err
	}

	released := 0
	for _, entry := range expired {
		s.scheduler.Cancel(entry.IPAddress)
		ok, err := s.registry.ReleaseAutoBlock(entry.IPAddress)
		if err != nil {
			logger.ForIP(entry.IPAddress).WithError(err).Error("failed to release expired auto-block")
			continue
		}
		if ok {
			released++
			recordRelease(s.decisions, s.notifier, models.DecisionSourceSweep, entry.IPAddress)
		}
	}
	return released, nil
}

// Restore releases auto-blocks that expired while the process was down and
// arms timers for the ones still running. It returns the number of timers armed.
func (s *UnblockSweeper) Restore() (int, error) {
	if _, err := s.Sweep(); err != nil {
		return 0, err
	}

	now := s.now()
	pending, err := s.registry.PendingAutoBlocks(now)
	if err != nil {
		return 0, err
	}
	for _, entry := range pending {
		s.scheduler.Schedule(entry.IPAddress, entry.BlockedUntil.Sub(now))
	}
	if len(pending) > 0 {
		logger.Log().WithField("count", len(pending)).Info("re-armed pending unblock timers")
	}
	return len(pending), nil
}
