package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// BlockReason explains why an address is denied.
type BlockReason string

const (
	ReasonSpam      BlockReason = "spam"
	ReasonHack      BlockReason = "hack"
	ReasonRisk      BlockReason = "risk"
	ReasonAutoBlock BlockReason = "auto_block"
)

// MaxIPAddressLength bounds the ip_address columns; 45 fits the longest
// textual IPv6 form with an embedded IPv4 tail.
const MaxIPAddressLength = 45

// ErrInvalidBlockState is returned when status and reason disagree.
var ErrInvalidBlockState = errors.New("blocked IPs need a valid reason and allowed IPs must not have one")

// ParseBlockReason normalizes s and reports whether it names a known reason.
func ParseBlockReason(s string) (BlockReason, bool) {
	r := BlockReason(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case ReasonSpam, ReasonHack, ReasonRisk, ReasonAutoBlock:
		return r, true
	}
	return "", false
}

// IPEntry is a row of the IP allow/deny registry.
// Status true means allowed.
type IPEntry struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	IPAddress string       `json:"ip_address" gorm:"size:45;not null;uniqueIndex"`
	Status    bool         `json:"status" gorm:"not null;index"`
	Reason    *BlockReason `json:"reason"`
	DateAdded time.Time    `json:"date_added"`
	// BlockedUntil is set for auto-blocks so expiry survives a restart.
	BlockedUntil *time.Time `json:"blocked_until,omitempty" gorm:"index"`
}

// TableName keeps the historical table name.
func (IPEntry) TableName() string {
	return "ips"
}

// IsAutoBlocked reports whether the entry is currently denied by the detector.
func (e *IPEntry) IsAutoBlocked() bool {
	return !e.Status && e.Reason != nil && *e.Reason == ReasonAutoBlock
}

// Allow clears the block.
func (e *IPEntry) Allow(now time.Time) {
	e.Status = true
	e.Reason = nil
	e.BlockedUntil = nil
	e.DateAdded = now
}

// Block denies the address for reason.
func (e *IPEntry) Block(reason BlockReason, now time.Time, until *time.Time) {
	e.Status = false
	e.Reason = &reason
	e.BlockedUntil = until
	e.DateAdded = now
}

// Validate checks the status/reason invariant.
func (e *IPEntry) Validate() error {
	if e.Status {
		if e.Reason != nil || e.BlockedUntil != nil {
			return ErrInvalidBlockState
		}
		return nil
	}
	if e.Reason == nil {
		return ErrInvalidBlockState
	}
	if _, ok := ParseBlockReason(string(*e.Reason)); !ok {
		return ErrInvalidBlockState
	}
	return nil
}

// BeforeSave rejects rows that break the status/reason invariant.
func (e *IPEntry) BeforeSave(tx *gorm.DB) error {
	if e.DateAdded.IsZero() {
		e.DateAdded = tx.NowFunc()
	}
	return e.Validate()
}
