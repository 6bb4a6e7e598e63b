package services

import (
	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/gorm"
)

// DecisionLog stores the audit trail of registry blocks and unblocks.
type DecisionLog struct {
	db *gorm.DB
}

// NewDecisionLog returns a DecisionLog using the provided DB
func NewDecisionLog(db *gorm.DB) *DecisionLog {
	return &DecisionLog{db: db}
}

// Log stores one decision. A nil log discards it.
func (l *DecisionLog) Log(source, action, ip string, ruleID *uint, details string) error {
	if l == nil {
		return nil
	}
	d := &models.SecurityDecision{
		Source:  source,
		Action:  action,
		IP:      ip,
		RuleID:  ruleID,
		Details: details,
	}
	if err := l.db.Create(d).Error; err != nil {
		return internalErr("log decision", err)
	}
	return nil
}

// List returns recent decisions, newest first
func (l *DecisionLog) List(limit int) ([]models.SecurityDecision, error) {
	res := []models.SecurityDecision{}
	q := l.db.Order("created_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&res).Error; err != nil {
		return nil, internalErr("list decisions", err)
	}
	return res, nil
}

// ForIP returns every decision taken for ip in chronological order.
func (l *DecisionLog) ForIP(ip string) ([]models.SecurityDecision, error) {
	var res []models.SecurityDecision
	if err := l.db.Where("ip = ?", ip).Order("id asc").Find(&res).Error; err != nil {
		return nil, internalErr("list decisions for ip", err)
	}
	return res, nil
}
