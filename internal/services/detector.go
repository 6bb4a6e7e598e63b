package services

import (
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/Wikid82/warden/backend/internal/metrics"
	"github.com/Wikid82/warden/backend/internal/models"
)

// DetectionWindow is the trailing period in which failed attempts are
// counted. It is fixed and does not follow the rule's block duration.
const DetectionWindow = time.Hour

// Decision is the outcome of one detector evaluation.
type Decision struct {
	Blocked        bool      `json:"blocked"`
	AlreadyBlocked bool      `json:"already_blocked"`
	Failures       int       `json:"failures"`
	Threshold      int       `json:"threshold"`
	RuleID         uint      `json:"rule_id"`
	Until          time.Time `json:"until,omitempty"`
}

// Detector blocks IPs whose failed logins reach the active rule's threshold.
type Detector struct {
	db        *gorm.DB
	rules     *RuleService
	registry  *IPRegistryService
	scheduler *UnblockScheduler
	decisions *DecisionLog
	notifier  *Notifier
	now       func() time.Time

	// Evaluations are serialized so concurrent failures from one IP
	// cannot both block it and arm two timers.
	mu sync.Mutex
}

func NewDetector(db *gorm.DB, rules *RuleService, registry *IPRegistryService, scheduler *UnblockScheduler, decisions *DecisionLog, notifier *Notifier) *Detector {
	return &Detector{
		db:        db,
		rules:     rules,
		registry:  registry,
		scheduler: scheduler,
		decisions: decisions,
		notifier:  notifier,
		now:       utcNow,
	}
}

// Evaluate counts the recent failures of ip and blocks it when the active
// rule's threshold is reached. Without an active rule nothing happens.
func (d *Detector) Evaluate(ip string) (Decision, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rule, err := d.rules.Active()
	if errors.Is(err, ErrRuleNotFound) {
		return Decision{}, nil
	}
	if err != nil {
		return Decision{}, err
	}

	now := d.now()
	failures, err := countFailedAttempts(d.db, ip, now.Add(-DetectionWindow))
	if err != nil {
		return Decision{}, err
	}

	dec := Decision{Failures: int(failures), Threshold: rule.MaxFailedAttempts, RuleID: rule.ID}
	if failures < int64(rule.MaxFailedAttempts) {
		return dec, nil
	}

	duration := ParseBlockDuration(rule.BlockDuration)
	until := now.Add(duration)
	_, already, err := d.registry.AutoBlock(ip, until)
	if err != nil {
		return dec, err
	}
	dec.Blocked = true
	if already {
		dec.AlreadyBlocked = true
		return dec, nil
	}
	dec.Until = until

	d.scheduler.Schedule(ip, duration)
	metrics.IncAutoBlock()
	ruleID := rule.ID
	if err := d.decisions.Log(models.DecisionSourceDetector, models.DecisionBlock, ip, &ruleID, rule.DetectionPattern+": "+rule.BlockDuration); err != nil {
		logger.ForIP(ip).WithError(err).Warn("failed to record block decision")
	}
	notifyBlocked(d.notifier, ip, rule.BlockDuration)
	logger.ForIP(ip).WithFields(map[string]interface{}{
		"failures": failures,
		"rule_id":  rule.ID,
		"duration": rule.BlockDuration,
		"until":    until,
	}).Warn("IP blocked automatically")

	return dec, nil
}

func countFailedAttempts(db *gorm.DB, ip string, since time.Time) (int64, error) {
	var count int64
	err := db.Model(&models.LoginAttempt{}).
		Where("ip_address = ? AND success = ? AND attempted_at > ?", ip, false, since).
		Count(&count).Error
	if err != nil {
		return 0, internalErr("count failed attempts", err)
	}
	return count, nil
}
