package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/warden/backend/internal/models"
)

type stubReleaser struct {
	mu       sync.Mutex
	released []string
	err      error
}

func (s *stubReleaser) ReleaseAutoBlock(ip string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	s.released = append(s.released, ip)
	return true, nil
}

func newStubScheduler() (*UnblockScheduler, *stubReleaser, *fakeTimers) {
	rel := &stubReleaser{}
	timers := &fakeTimers{}
	s := NewUnblockScheduler(rel, nil, nil)
	s.afterFunc = timers.AfterFunc
	return s, rel, timers
}

func TestUnblockScheduler_FiresOnce(t *testing.T) {
	s, rel, timers := newStubScheduler()

	s.Schedule("10.0.0.5", time.Hour)
	assert.Equal(t, 1, s.Pending())

	assert.Equal(t, 1, timers.fireAll())
	assert.Equal(t, 0, timers.fireAll())
	assert.Equal(t, []string{"10.0.0.5"}, rel.released)
	assert.Equal(t, 0, s.Pending())
}

func TestUnblockScheduler_RescheduleReplacesPending(t *testing.T) {
	s, rel, timers := newStubScheduler()

	s.Schedule("10.0.0.5", time.Hour)
	s.Schedule("10.0.0.5", 2*time.Hour)
	s.Schedule("10.0.0.6", time.Minute)
	assert.Equal(t, 2, s.Pending())

	all := timers.all()
	require.Len(t, all, 3)
	assert.True(t, all[0].stopped, "first timer is stopped when replaced")
	assert.False(t, all[1].stopped)

	assert.Equal(t, 2, timers.fireAll())
	assert.ElementsMatch(t, []string{"10.0.0.5", "10.0.0.6"}, rel.released)
}

func TestUnblockScheduler_StaleTimerDoesNotRelease(t *testing.T) {
	s, rel, timers := newStubScheduler()

	s.Schedule("10.0.0.5", time.Hour)
	stale := timers.all()[0]
	s.Schedule("10.0.0.5", time.Hour)

	// Simulate the first timer having already started when it was replaced.
	stale.fn()
	assert.Empty(t, rel.released)
	assert.Equal(t, 1, s.Pending())
}

func TestUnblockScheduler_CancelAndStop(t *testing.T) {
	s, rel, timers := newStubScheduler()

	assert.False(t, s.Cancel("10.0.0.5"))
	s.Schedule("10.0.0.5", time.Hour)
	s.Schedule("10.0.0.6", time.Hour)
	s.Schedule("10.0.0.7", time.Hour)

	assert.True(t, s.Cancel("10.0.0.5"))
	assert.Equal(t, 2, s.Pending())

	s.Stop()
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 0, timers.fireAll())
	assert.Empty(t, rel.released)
}

func TestUnblockScheduler_Due(t *testing.T) {
	s, _, _ := newStubScheduler()
	clock := newFakeClock()
	s.now = clock.Now

	_, ok := s.Due("10.0.0.5")
	assert.False(t, ok)

	s.Schedule("10.0.0.5", 90*time.Minute)
	due, ok := s.Due("10.0.0.5")
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(90*time.Minute), due)
}

func TestUnblockScheduler_ReleaseErrorIsLogged(t *testing.T) {
	s, rel, timers := newStubScheduler()
	rel.err = errors.New("disk I/O error")

	s.Schedule("10.0.0.5", time.Second)
	assert.NotPanics(t, func() { timers.fireAll() })
	assert.Equal(t, 0, s.Pending())
}

func TestUnblockScheduler_RealTimer(t *testing.T) {
	rel := &stubReleaser{}
	s := NewUnblockScheduler(rel, nil, nil)

	s.Schedule("10.0.0.5", 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		rel.mu.Lock()
		defer rel.mu.Unlock()
		return len(rel.released) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, s.Pending())
}

func TestUnblockScheduler_RecordsTimerDecision(t *testing.T) {
	e := newTestEngine(t)
	_, _, err := e.registry.AutoBlock("10.0.0.5", e.clock.Now().Add(time.Hour))
	require.NoError(t, err)

	e.scheduler.Schedule("10.0.0.5", time.Hour)
	e.timers.fireAll()

	decisions, err := e.decisions.ForIP("10.0.0.5")
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, models.DecisionSourceTimer, decisions[0].Source)
	assert.Equal(t, models.DecisionUnblock, decisions[0].Action)
}
