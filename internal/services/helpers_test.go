package services

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/database"
)

// openTestDB creates a SQLite in-memory DB unique per test.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{NowFunc: func() time.Time { return time.Now().UTC() }})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (f *fakeTimer) Stop() bool {
	was := !f.stopped && !f.fired
	f.stopped = true
	return was
}

type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (ft *fakeTimers) AfterFunc(d time.Duration, fn func()) Timer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	ft.timers = append(ft.timers, t)
	return t
}

// fireAll runs every armed, unstopped timer once.
func (ft *fakeTimers) fireAll() int {
	ft.mu.Lock()
	var due []*fakeTimer
	for _, t := range ft.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	ft.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
	return len(due)
}

func (ft *fakeTimers) all() []*fakeTimer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return append([]*fakeTimer(nil), ft.timers...)
}

type engine struct {
	db        *gorm.DB
	clock     *fakeClock
	timers    *fakeTimers
	decisions *DecisionLog
	rules     *RuleService
	registry  *IPRegistryService
	scheduler *UnblockScheduler
	sweeper   *UnblockSweeper
	detector  *Detector
	attempts  *AttemptService
	alerts    *AlertService
}

func newTestEngine(t *testing.T) *engine {
	t.Helper()
	return newEngine(openTestDB(t))
}

// newFileEngine wires the services over a file-backed database opened the way
// the server opens it, with a connection pool instead of a single connection.
func newFileEngine(t *testing.T) *engine {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "warden.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return newEngine(db)
}

func newEngine(db *gorm.DB) *engine {
	clock := newFakeClock()
	timers := &fakeTimers{}

	decisions := NewDecisionLog(db)
	rules := NewRuleService(db)
	registry := NewIPRegistryService(db, decisions)
	registry.now = clock.Now
	scheduler := NewUnblockScheduler(registry, decisions, nil)
	scheduler.afterFunc = timers.AfterFunc
	scheduler.now = clock.Now
	sweeper := NewUnblockSweeper("@every 1m", registry, scheduler, decisions, nil)
	sweeper.now = clock.Now
	detector := NewDetector(db, rules, registry, scheduler, decisions, nil)
	detector.now = clock.Now
	attempts := NewAttemptService(db, detector)
	attempts.now = clock.Now
	alerts := NewAlertService(db)
	alerts.now = clock.Now

	return &engine{
		db: db, clock: clock, timers: timers, decisions: decisions, rules: rules,
		registry: registry, scheduler: scheduler, sweeper: sweeper, detector: detector,
		attempts: attempts, alerts: alerts,
	}
}

func (e *engine) fail(t *testing.T, ip string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := e.attempts.Record(ip, nil, false)
		require.NoError(t, err)
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
