package models

import (
	"time"
)

// DefaultDetectionPattern labels rules created without an explicit pattern.
const DefaultDetectionPattern = "multiple_failed_logins"

// BlockingRule is the policy used by the detector. The newest active row wins.
type BlockingRule struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	MaxFailedAttempts int       `json:"max_failed_attempts" gorm:"not null;default:5"`
	BlockDuration     string    `json:"block_duration" gorm:"not null;default:'1 hour'"` // e.g. "30 minutes", "2 hours", "1 day"
	DetectionPattern  string    `json:"detection_pattern" gorm:"default:'multiple_failed_logins'"`
	Active            bool      `json:"active" gorm:"index"`
	CreatedAt         time.Time `json:"created_at"`
}

// TableName keeps the historical table name.
func (BlockingRule) TableName() string {
	return "security_rules"
}
