package models

import (
	"time"
)

// LoginAttempt is one authentication attempt reported by the login flow.
// Rows are append-only.
type LoginAttempt struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	IPAddress   string    `json:"ip_address" gorm:"size:45;not null;index:idx_login_attempts_ip_time,priority:1"`
	Username    *string   `json:"username"`
	Success     bool      `json:"success" gorm:"not null"`
	AttemptedAt time.Time `json:"attempted_at" gorm:"not null;index:idx_login_attempts_ip_time,priority:2"`
}
