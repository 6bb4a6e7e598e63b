package services

import (
	"sync"
	"time"

	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/Wikid82/warden/backend/internal/metrics"
	"github.com/Wikid82/warden/backend/internal/models"
)

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc arms f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type autoBlockReleaser interface {
	ReleaseAutoBlock(ip string) (bool, error)
}

type pendingUnblock struct {
	timer Timer
	due   time.Time
}

// UnblockScheduler reverts auto-blocks after their duration with in-process
// timers, at most one per IP. Timers do not survive a restart; the
// UnblockSweeper covers that case from the persisted expiry.
type UnblockScheduler struct {
	registry  autoBlockReleaser
	decisions *DecisionLog
	notifier  *Notifier
	afterFunc AfterFunc
	now       func() time.Time

	mu     sync.Mutex
	timers map[string]*pendingUnblock
}

func NewUnblockScheduler(registry autoBlockReleaser, decisions *DecisionLog, notifier *Notifier) *UnblockScheduler {
	return &UnblockScheduler{
		registry:  registry,
		decisions: decisions,
		notifier:  notifier,
		afterFunc: realAfterFunc,
		now:       utcNow,
		timers:    make(map[string]*pendingUnblock),
	}
}

// Schedule arms an unblock of ip after delay, replacing any pending unblock
// of the same IP.
func (s *UnblockScheduler) Schedule(ip string, delay time.Duration) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[ip]; ok {
		prev.timer.Stop()
	}
	p := &pendingUnblock{due: s.now().Add(delay)}
	p.timer = s.afterFunc(delay, func() { s.fire(ip, p) })
	s.timers[ip] = p
	metrics.SetPendingUnblocks(len(s.timers))
	return p.timer
}

// Cancel stops the pending unblock of ip, if any.
func (s *UnblockScheduler) Cancel(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.timers[ip]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(s.timers, ip)
	metrics.SetPendingUnblocks(len(s.timers))
	return true
}

// Pending returns the number of armed timers.
func (s *UnblockScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Due returns when the pending unblock of ip fires.
func (s *UnblockScheduler) Due(ip string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.timers[ip]
	if !ok {
		return time.Time{}, false
	}
	return p.due, true
}

// Stop disarms every timer. Used on shutdown.
func (s *UnblockScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ip, p := range s.timers {
		p.timer.Stop()
		delete(s.timers, ip)
	}
	metrics.SetPendingUnblocks(0)
}

func (s *UnblockScheduler) fire(ip string, p *pendingUnblock) {
	s.mu.Lock()
	if s.timers[ip] != p {
		// Replaced or cancelled after the timer already started running.
		s.mu.Unlock()
		return
	}
	delete(s.timers, ip)
	metrics.SetPendingUnblocks(len(s.timers))
	s.mu.Unlock()

	released, err := s.registry.ReleaseAutoBlock(ip)
	if err != nil {
		logger.ForIP(ip).WithError(err).Error("scheduled unblock failed")
		return
	}
	if released {
		recordRelease(s.decisions, s.notifier, models.DecisionSourceTimer, ip)
	}
}

func recordRelease(decisions *DecisionLog, notifier *Notifier, source, ip string) {
	metrics.IncAutoUnblock(source)
	if err := decisions.Log(source, models.DecisionUnblock, ip, nil, "auto-block expired"); err != nil {
		logger.ForIP(ip).WithError(err).Warn("failed to record unblock decision")
	}
	notifyUnblocked(notifier, ip, source)
	logger.ForIP(ip).WithField("source", source).Info("IP automatically unblocked")
}
