package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/Wikid82/warden/backend/internal/metrics"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/util"
)

// FailureEvaluator reacts to a failed login from ip.
type FailureEvaluator interface {
	Evaluate(ip string) (Decision, error)
}

// AttemptService is the append-only login attempt log.
type AttemptService struct {
	db        *gorm.DB
	evaluator FailureEvaluator
	now       func() time.Time
}

// NewAttemptService returns an AttemptService. evaluator may be nil, in which
// case failures are only recorded.
func NewAttemptService(db *gorm.DB, evaluator FailureEvaluator) *AttemptService {
	return &AttemptService{db: db, evaluator: evaluator, now: utcNow}
}

// Record appends an attempt. A failed attempt is evaluated before Record
// returns; evaluation errors are logged and never returned to the caller.
func (s *AttemptService) Record(ip string, username *string, success bool) (*models.LoginAttempt, error) {
	ip = strings.TrimSpace(ip)
	if err := validateIP(ip); err != nil {
		return nil, err
	}
	if username != nil && strings.TrimSpace(*username) == "" {
		username = nil
	}

	attempt := &models.LoginAttempt{
		IPAddress:   ip,
		Username:    username,
		Success:     success,
		AttemptedAt: s.now(),
	}
	if err := s.db.Create(attempt).Error; err != nil {
		return nil, internalErr("record login attempt", err)
	}
	metrics.IncLoginAttempt(success)

	if !success && s.evaluator != nil {
		if _, err := s.evaluator.Evaluate(ip); err != nil {
			metrics.IncDetectorError()
			logger.ForIP(ip).WithError(err).WithField("username", util.SanitizeOptional(username)).Error("automatic blocking check failed")
		}
	}
	return attempt, nil
}

// List returns every attempt in chronological order.
func (s *AttemptService) List() ([]models.LoginAttempt, error) {
	var attempts []models.LoginAttempt
	if err := s.db.Order("attempted_at asc").Order("id asc").Find(&attempts).Error; err != nil {
		return nil, internalErr("list login attempts", err)
	}
	return attempts, nil
}

// RecentFailures returns the failures of ip inside the detection window.
func (s *AttemptService) RecentFailures(ip string) (int64, error) {
	return countFailedAttempts(s.db, strings.TrimSpace(ip), s.now().Add(-DetectionWindow))
}
