package services

import (
	"errors"
	"strings"

	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/gorm"
)

// RuleService administers blocking rules.
type RuleService struct {
	db *gorm.DB
}

func NewRuleService(db *gorm.DB) *RuleService {
	return &RuleService{db: db}
}

// Set stores a new active rule. Earlier rules stay active; Active always
// returns the newest one.
func (s *RuleService) Set(maxFailedAttempts int, blockDuration, detectionPattern string) (*models.BlockingRule, error) {
	blockDuration = strings.TrimSpace(blockDuration)
	if maxFailedAttempts <= 0 || blockDuration == "" {
		return nil, ErrMissingRuleParams
	}
	detectionPattern = strings.TrimSpace(detectionPattern)
	if detectionPattern == "" {
		detectionPattern = models.DefaultDetectionPattern
	}

	rule := &models.BlockingRule{
		MaxFailedAttempts: maxFailedAttempts,
		BlockDuration:     blockDuration,
		DetectionPattern:  detectionPattern,
		Active:            true,
	}
	if err := s.db.Create(rule).Error; err != nil {
		return nil, internalErr("save blocking rule", err)
	}
	return rule, nil
}

// Active returns the most recently created active rule.
func (s *RuleService) Active() (*models.BlockingRule, error) {
	var rule models.BlockingRule
	if err := s.db.Where("active = ?", true).Order("id desc").First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, internalErr("load active rule", err)
	}
	return &rule, nil
}

// List returns every rule, newest first.
func (s *RuleService) List() ([]models.BlockingRule, error) {
	var rules []models.BlockingRule
	if err := s.db.Order("id desc").Find(&rules).Error; err != nil {
		return nil, internalErr("list rules", err)
	}
	return rules, nil
}
