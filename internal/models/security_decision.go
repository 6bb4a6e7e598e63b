package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Decision sources.
const (
	DecisionSourceDetector = "detector"
	DecisionSourceTimer    = "timer"
	DecisionSourceSweep    = "sweep"
	DecisionSourceManual   = "manual"
)

// Decision actions.
const (
	DecisionBlock   = "block"
	DecisionUnblock = "unblock"
)

// SecurityDecision records a block or unblock applied to the IP registry so
// it can be audited and surfaced in the dashboard.
type SecurityDecision struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex"`
	Source    string    `json:"source"`
	Action    string    `json:"action"`
	IP        string    `json:"ip" gorm:"index"`
	RuleID    *uint     `json:"rule_id"`
	Details   string    `json:"details" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (d *SecurityDecision) BeforeCreate(tx *gorm.DB) error {
	if d.UUID == "" {
		d.UUID = uuid.NewString()
	}
	return nil
}
