package models

import (
	"time"
)

// Report criticity levels.
const (
	CriticityLow    = "low"
	CriticityMedium = "medium"
	CriticityHigh   = "high"
	CriticityUrgent = "urgent"
)

// Report statuses.
const (
	ReportPending    = "pending"
	ReportInProgress = "in_progress"
	ReportResolved   = "resolved"
	ReportClosed     = "closed"
)

// Report is a moderation report filed by a user. This service only reads it
// to build the security alert view.
type Report struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      *uint     `json:"user_id"`
	Subject     string    `json:"subject" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Criticity   string    `json:"criticity" gorm:"default:'low';index"`
	Status      string    `json:"status" gorm:"default:'pending';index"`
	AssignedTo  *uint     `json:"assigned_to"`
	DateCreated time.Time `json:"date_created" gorm:"autoCreateTime"`
	DateUpdated time.Time `json:"date_updated" gorm:"autoUpdateTime"`
}
