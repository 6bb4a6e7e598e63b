package cerberus

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/config"
	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/Wikid82/warden/backend/internal/metrics"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
)

// Cerberus wires the login-attempt detector, the IP registry and the unblock
// machinery into one engine shared by the HTTP handlers.
type Cerberus struct {
	cfg config.SecurityConfig

	decisions *services.DecisionLog
	notifier  *services.Notifier
	rules     *services.RuleService
	registry  *services.IPRegistryService
	scheduler *services.UnblockScheduler
	sweeper   *services.UnblockSweeper
	detector  *services.Detector
	attempts  *services.AttemptService
	alerts    *services.AlertService

	mu      sync.Mutex
	started bool
}

// Status summarizes the engine for the dashboard.
type Status struct {
	EnforceBlocklist bool   `json:"enforce_blocklist"`
	SweepSchedule    string `json:"sweep_schedule"`
	Notifications    bool   `json:"notifications"`
	PendingUnblocks  int    `json:"pending_unblocks"`
}

// New creates a new Cerberus instance
func New(cfg config.SecurityConfig, db *gorm.DB) *Cerberus {
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = config.DefaultSweepSchedule
	}

	decisions := services.NewDecisionLog(db)
	notifier := services.NewNotifier(cfg.NotifyURLs)
	rules := services.NewRuleService(db)
	registry := services.NewIPRegistryService(db, decisions)
	scheduler := services.NewUnblockScheduler(registry, decisions, notifier)
	detector := services.NewDetector(db, rules, registry, scheduler, decisions, notifier)

	return &Cerberus{
		cfg:       cfg,
		decisions: decisions,
		notifier:  notifier,
		rules:     rules,
		registry:  registry,
		scheduler: scheduler,
		sweeper:   services.NewUnblockSweeper(cfg.SweepSchedule, registry, scheduler, decisions, notifier),
		detector:  detector,
		attempts:  services.NewAttemptService(db, detector),
		alerts:    services.NewAlertService(db),
	}
}

// Start reverts auto-blocks that expired while the process was down, re-arms
// timers for the others and starts the periodic sweep.
func (c *Cerberus) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}

	armed, err := c.sweeper.Restore()
	if err != nil {
		return err
	}
	if err := c.sweeper.Start(); err != nil {
		return err
	}
	c.started = true
	logger.Log().WithFields(map[string]interface{}{
		"rearmed":   armed,
		"schedule":  c.cfg.SweepSchedule,
		"enforcing": c.cfg.EnforceBlocklist,
	}).Info("cerberus started")
	return nil
}

// Stop halts the sweep, disarms every timer and flushes notifications.
// Pending auto-blocks are picked up again by the next Start.
func (c *Cerberus) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweeper.Stop()
	c.scheduler.Stop()
	c.notifier.Wait()
	c.started = false
}

// IsEnabled reports whether blocked IPs are rejected by Middleware.
func (c *Cerberus) IsEnabled() bool {
	return c.cfg.EnforceBlocklist
}

// Status returns the current engine state.
func (c *Cerberus) Status() Status {
	return Status{
		EnforceBlocklist: c.cfg.EnforceBlocklist,
		SweepSchedule:    c.cfg.SweepSchedule,
		Notifications:    len(c.cfg.NotifyURLs) > 0,
		PendingUnblocks:  c.scheduler.Pending(),
	}
}

// SaveIP adds or overwrites a registry row on behalf of an administrator.
func (c *Cerberus) SaveIP(ip string, status bool, reason *string) (*models.IPEntry, error) {
	entry, err := c.registry.Create(ip, status, reason)
	if err != nil {
		return nil, err
	}
	c.disarmUnlessAutoBlocked(entry)
	return entry, nil
}

// UpdateIPStatus changes an existing row on behalf of an administrator. A row
// that is no longer auto-blocked loses its pending unblock timer.
func (c *Cerberus) UpdateIPStatus(ip string, status bool, reason *string) (*models.IPEntry, error) {
	entry, err := c.registry.UpdateStatus(ip, status, reason)
	if err != nil {
		return nil, err
	}
	c.disarmUnlessAutoBlocked(entry)
	return entry, nil
}

func (c *Cerberus) disarmUnlessAutoBlocked(entry *models.IPEntry) {
	if entry.IsAutoBlocked() {
		return
	}
	if c.scheduler.Cancel(entry.IPAddress) {
		logger.ForIP(entry.IPAddress).Info("pending auto-unblock cancelled by manual change")
	}
}

func (c *Cerberus) Attempts() *services.AttemptService { return c.attempts }
func (c *Cerberus) Rules() *services.RuleService { return c.rules }
func (c *Cerberus) Registry() *services.IPRegistryService { return c.registry }
func (c *Cerberus) Alerts() *services.AlertService { return c.alerts }
func (c *Cerberus) Decisions() *services.DecisionLog { return c.decisions }
func (c *Cerberus) Scheduler() *services.UnblockScheduler { return c.scheduler }
func (c *Cerberus) Sweeper() *services.UnblockSweeper { return c.sweeper }
func (c *Cerberus) Detector() *services.Detector { return c.detector }

// Middleware returns a Gin middleware that rejects clients blocked in the IP
// registry when enforcement is enabled. Registry errors let the request through.
func (c *Cerberus) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !c.IsEnabled() {
			ctx.Next()
			return
		}

		clientIP := ctx.ClientIP()
		blocked, err := c.registry.IsBlocked(clientIP)
		if err != nil {
			logger.ForIP(clientIP).WithError(err).Error("blocklist lookup failed")
			ctx.Next()
			return
		}
		if blocked {
			metrics.IncBlockedRequest()
			logger.ForIP(clientIP).WithFields(map[string]interface{}{
				"source":   "blocklist",
				"decision": "block",
				"path":     ctx.Request.URL.Path,
			}).Warn("request from blocked IP rejected")
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: IP address is blocked"})
			return
		}

		ctx.Next()
	}
}
