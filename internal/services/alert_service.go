package services

import (
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/models"
)

const (
	// SuspiciousFailureThreshold is the number of failures in the detection
	// window that flags an IP on the alerts view.
	SuspiciousFailureThreshold = 3
	// RecentBlockWindow bounds the blocks listed on the alerts view.
	RecentBlockWindow = 7 * 24 * time.Hour
)

// SuspiciousIP aggregates the recent failures of one address.
type SuspiciousIP struct {
	IPAddress      string    `json:"ip_address"`
	FailedAttempts int       `json:"failed_attempts"`
	LastAttempt    time.Time `json:"last_attempt"`
}

// RecentBlock is a blocked registry row.
type RecentBlock struct {
	IPAddress string              `json:"ip_address"`
	Reason    *models.BlockReason `json:"reason"`
	DateAdded time.Time           `json:"date_added"`
}

// Alerts is the combined security alert view.
type Alerts struct {
	SuspiciousIPs   []SuspiciousIP  `json:"suspiciousIPs"`
	RecentBlocks    []RecentBlock   `json:"recentBlocks"`
	CriticalReports []models.Report `json:"criticalReports"`
	TotalAlerts     int             `json:"totalAlerts"`
}

// AlertService builds the alert view from attempts, the registry and reports.
type AlertService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAlertService(db *gorm.DB) *AlertService {
	return &AlertService{db: db, now: utcNow}
}

// Alerts returns suspicious IPs, recent blocks and unresolved high/urgent reports.
func (s *AlertService) Alerts() (*Alerts, error) {
	now := s.now()

	suspicious, err := s.suspiciousIPs(now)
	if err != nil {
		return nil, err
	}
	blocks, err := s.recentBlocks(now)
	if err != nil {
		return nil, err
	}
	reports, err := s.criticalReports()
	if err != nil {
		return nil, err
	}

	return &Alerts{
		SuspiciousIPs:   suspicious,
		RecentBlocks:    blocks,
		CriticalReports: reports,
		TotalAlerts:     len(suspicious) + len(blocks) + len(reports),
	}, nil
}

func (s *AlertService) suspiciousIPs(now time.Time) ([]SuspiciousIP, error) {
	var failures []models.LoginAttempt
	if err := s.db.Select("ip_address", "attempted_at").
		Where("success = ? AND attempted_at > ?", false, now.Add(-DetectionWindow)).
		Find(&failures).Error; err != nil {
		return nil, internalErr("load recent failures", err)
	}

	byIP := make(map[string]*SuspiciousIP)
	for _, f := range failures {
		agg, ok := byIP[f.IPAddress]
		if !ok {
			agg = &SuspiciousIP{IPAddress: f.IPAddress}
			byIP[f.IPAddress] = agg
		}
		agg.FailedAttempts++
		if f.AttemptedAt.After(agg.LastAttempt) {
			agg.LastAttempt = f.AttemptedAt
		}
	}

	out := make([]SuspiciousIP, 0, len(byIP))
	for _, agg := range byIP {
		if agg.FailedAttempts >= SuspiciousFailureThreshold {
			out = append(out, *agg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FailedAttempts != out[j].FailedAttempts {
			return out[i].FailedAttempts > out[j].FailedAttempts
		}
		if !out[i].LastAttempt.Equal(out[j].LastAttempt) {
			return out[i].LastAttempt.After(out[j].LastAttempt)
		}
		return out[i].IPAddress < out[j].IPAddress
	})
	return out, nil
}

func (s *AlertService) recentBlocks(now time.Time) ([]RecentBlock, error) {
	var entries []models.IPEntry
	if err := s.db.Where("status = ? AND date_added >= ?", false, now.Add(-RecentBlockWindow)).
		Order("date_added desc").
		Find(&entries).Error; err != nil {
		return nil, internalErr("load recent blocks", err)
	}
	out := make([]RecentBlock, 0, len(entries))
	for _, e := range entries {
		out = append(out, RecentBlock{IPAddress: e.IPAddress, Reason: e.Reason, DateAdded: e.DateAdded})
	}
	return out, nil
}

func (s *AlertService) criticalReports() ([]models.Report, error) {
	reports := []models.Report{}
	if err := s.db.Where("criticity IN ? AND status <> ?", []string{models.CriticityUrgent, models.CriticityHigh}, models.ReportResolved).
		Order("CASE criticity WHEN 'urgent' THEN 1 WHEN 'high' THEN 2 END").
		Order("date_created desc").
		Find(&reports).Error; err != nil {
		return nil, internalErr("load critical reports", err)
	}
	return reports, nil
}
