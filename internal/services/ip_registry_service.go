package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/gorm"
)

// IPPageSize is the number of registry rows returned per page.
const IPPageSize = 10

// IPPage is one page of the IP registry.
type IPPage struct {
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalIPs   int64            `json:"totalIPs"`
	TotalPages int64            `json:"totalPages"`
	IPs        []models.IPEntry `json:"ips"`
}

// IPRegistryService owns the IP allow/deny registry.
type IPRegistryService struct {
	db        *gorm.DB
	decisions *DecisionLog
	now       func() time.Time
}

func NewIPRegistryService(db *gorm.DB, decisions *DecisionLog) *IPRegistryService {
	return &IPRegistryService{db: db, decisions: decisions, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

// AutoBlock denies ip with reason auto_block until the given time. When the
// address is already blocked, for any reason, the row is left untouched and
// alreadyBlocked is true.
func (s *IPRegistryService) AutoBlock(ip string, until time.Time) (entry *models.IPEntry, alreadyBlocked bool, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.IPEntry
		findErr := tx.Where("ip_address = ?", ip).First(&existing).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			existing = models.IPEntry{IPAddress: ip}
		case findErr != nil:
			return findErr
		case !existing.Status:
			entry, alreadyBlocked = &existing, true
			return nil
		}

		existing.Block(models.ReasonAutoBlock, s.now(), &until)
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		entry = &existing
		return nil
	})
	if err != nil {
		return nil, false, internalErr("auto-block "+ip, err)
	}
	return entry, alreadyBlocked, nil
}

// ReleaseAutoBlock re-allows ip if it is still auto-blocked. A row changed by
// an administrator in the meantime is left as is and false is returned.
func (s *IPRegistryService) ReleaseAutoBlock(ip string) (bool, error) {
	released := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var entry models.IPEntry
		if err := tx.Where("ip_address = ?", ip).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !entry.IsAutoBlocked() {
			return nil
		}
		entry.Allow(s.now())
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}
		released = true
		return nil
	})
	if err != nil {
		return false, internalErr("release auto-block "+ip, err)
	}
	return released, nil
}

// ExpiredAutoBlocks returns auto-blocks whose expiry is at or before now.
func (s *IPRegistryService) ExpiredAutoBlocks(now time.Time) ([]models.IPEntry, error) {
	var entries []models.IPEntry
	if err := s.autoBlocks().Where("blocked_until <= ?", now).Order("blocked_until asc").Find(&entries).Error; err != nil {
		return nil, internalErr("list expired auto-blocks", err)
	}
	return entries, nil
}

// PendingAutoBlocks returns auto-blocks that expire after now.
func (s *IPRegistryService) PendingAutoBlocks(now time.Time) ([]models.IPEntry, error) {
	var entries []models.IPEntry
	if err := s.autoBlocks().Where("blocked_until > ?", now).Order("blocked_until asc").Find(&entries).Error; err != nil {
		return nil, internalErr("list pending auto-blocks", err)
	}
	return entries, nil
}

func (s *IPRegistryService) autoBlocks() *gorm.DB {
	return s.db.Model(&models.IPEntry{}).
		Where("status = ? AND reason = ? AND blocked_until IS NOT NULL", false, models.ReasonAutoBlock)
}

// IsBlocked reports whether ip is denied by the registry.
func (s *IPRegistryService) IsBlocked(ip string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.IPEntry{}).Where("ip_address = ? AND status = ?", ip, false).Count(&count).Error; err != nil {
		return false, internalErr("check blocked "+ip, err)
	}
	return count > 0, nil
}

// Get returns the registry row for ip.
func (s *IPRegistryService) Get(ip string) (*models.IPEntry, error) {
	var entry models.IPEntry
	if err := s.db.Where("ip_address = ?", strings.TrimSpace(ip)).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIPNotFound
		}
		return nil, internalErr("get ip", err)
	}
	return &entry, nil
}

// List returns one page of the registry, optionally filtered by status.
// An empty page is reported as ErrIPNotFound.
func (s *IPRegistryService) List(page int, status *bool) (*IPPage, error) {
	if page < 1 {
		page = 1
	}
	filter := func(db *gorm.DB) *gorm.DB {
		if status != nil {
			return db.Where("status = ?", *status)
		}
		return db
	}

	var total int64
	if err := s.db.Model(&models.IPEntry{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, internalErr("count ips", err)
	}

	var entries []models.IPEntry
	if err := s.db.Scopes(filter).Order("id asc").Limit(IPPageSize).Offset((page - 1) * IPPageSize).Find(&entries).Error; err != nil {
		return nil, internalErr("list ips", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no ips found matching filters", ErrNotFound)
	}

	return &IPPage{
		Page:       page,
		Limit:      IPPageSize,
		TotalIPs:   total,
		TotalPages: (total + IPPageSize - 1) / IPPageSize,
		IPs:        entries,
	}, nil
}

// Search returns rows whose address contains query, case-insensitively.
func (s *IPRegistryService) Search(query string) ([]models.IPEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrSearchRequired
	}
	var entries []models.IPEntry
	pattern := "%" + strings.ToLower(query) + "%"
	if err := s.db.Where("LOWER(TRIM(ip_address)) LIKE ?", pattern).Order("id asc").Find(&entries).Error; err != nil {
		return nil, internalErr("search ips", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no IPs found matching your search", ErrNotFound)
	}
	return entries, nil
}

// Create adds or overwrites a registry row by hand. Manual blocks must use
// spam, hack or risk; auto_block is reserved for the detector.
func (s *IPRegistryService) Create(ip string, status bool, reason *string) (*models.IPEntry, error) {
	ip = strings.TrimSpace(ip)
	if err := validateIP(ip); err != nil {
		return nil, err
	}
	var blockReason models.BlockReason
	if !status {
		r, ok := parseReason(reason)
		if !ok || r == models.ReasonAutoBlock {
			return nil, ErrInvalidReason
		}
		blockReason = r
	}

	var entry models.IPEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ip_address = ?", ip).First(&entry).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			entry = models.IPEntry{IPAddress: ip}
		}
		s.apply(&entry, status, blockReason)
		return tx.Save(&entry).Error
	})
	if err != nil {
		return nil, internalErr("save ip", err)
	}
	s.logManual(&entry)
	return &entry, nil
}

// UpdateStatus changes the status of an existing row. Blocking requires a
// reason among spam, hack and risk. auto_block is only accepted for a row the
// detector already blocked, and then leaves the row and its expiry unchanged.
func (s *IPRegistryService) UpdateStatus(ip string, status bool, reason *string) (*models.IPEntry, error) {
	var blockReason models.BlockReason
	if !status {
		r, ok := parseReason(reason)
		if !ok {
			return nil, ErrInvalidReason
		}
		blockReason = r
	}

	var entry models.IPEntry
	unchanged := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ip_address = ?", strings.TrimSpace(ip)).First(&entry).Error; err != nil {
			return err
		}
		if blockReason == models.ReasonAutoBlock {
			if !entry.IsAutoBlocked() {
				return ErrInvalidReason
			}
			unchanged = true
			return nil
		}
		s.apply(&entry, status, blockReason)
		return tx.Save(&entry).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIPNotFound
		}
		if errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, internalErr("update ip", err)
	}
	if !unchanged {
		s.logManual(&entry)
	}
	return &entry, nil
}

func (s *IPRegistryService) apply(entry *models.IPEntry, status bool, reason models.BlockReason) {
	if status {
		entry.Allow(s.now())
		return
	}
	entry.Block(reason, s.now(), nil)
}

func (s *IPRegistryService) logManual(entry *models.IPEntry) {
	action, details := models.DecisionUnblock, "allowed by administrator"
	if !entry.Status {
		action, details = models.DecisionBlock, "blocked by administrator: "+string(*entry.Reason)
	}
	// The registry change already succeeded; an audit failure is not fatal.
	_ = s.decisions.Log(models.DecisionSourceManual, action, entry.IPAddress, nil, details)
}

func parseReason(reason *string) (models.BlockReason, bool) {
	if reason == nil {
		return "", false
	}
	return models.ParseBlockReason(*reason)
}
