package store

import (
	"fmt"
	"log"
	"sync"
	"time"

	"faceclock/models"

	"gorm.io/gorm"
)

// ============================================================
// SITE & OVERRIDE REPOSITORY
// ============================================================

// SiteRepo serves the geofence layer. Active sites are cached in memory and
// refreshed on a schedule, so the scan loop never blocks on the database.
type SiteRepo struct {
	db *gorm.DB

	mu     sync.RWMutex
	cached []models.Site
}

func NewSiteRepo(db *gorm.DB) *SiteRepo {
	return &SiteRepo{db: db}
}

// ActiveSites returns the cached active site list. Call Refresh at least once
// before the first scan.
func (r *SiteRepo) ActiveSites() []models.Site {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cached
}

// Refresh reloads active sites from the database into the cache.
func (r *SiteRepo) Refresh() error {
	var sites []models.Site
	if err := r.db.Where("is_active = ?", true).Find(&sites).Error; err != nil {
		return fmt.Errorf("failed to load sites: %w", err)
	}

	r.mu.Lock()
	r.cached = sites
	r.mu.Unlock()

	log.Printf("📍 Site cache refreshed, %d active sites", len(sites))
	return nil
}

// HasActiveOverride reports whether the worker holds an unexpired geofence
// exemption right now.
func (r *SiteRepo) HasActiveOverride(workerId int64, now time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.AccessOverride{}).
		Where("worker_id = ? AND expires_at > ?", workerId, now).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check override: %w", err)
	}
	return count > 0, nil
}

// GrantOverride records an admin-approved exemption.
func (r *SiteRepo) GrantOverride(o *models.AccessOverride) error {
	if err := r.db.Create(o).Error; err != nil {
		return fmt.Errorf("failed to grant override: %w", err)
	}
	log.Printf("✅ Override granted for worker %d until %s", o.WorkerId, o.ExpiresAt.Format(time.RFC3339))
	return nil
}

// PurgeExpiredOverrides deletes overrides past their expiry. Run nightly.
func (r *SiteRepo) PurgeExpiredOverrides(now time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", now).Delete(&models.AccessOverride{})
	return res.RowsAffected, res.Error
}

// RecordSpoofEvent appends to the spoof audit trail. Failures are logged but
// never block the scan pipeline.
func (r *SiteRepo) RecordSpoofEvent(ev *models.SpoofEvent) {
	if err := r.db.Create(ev).Error; err != nil {
		log.Printf("⚠️ Failed to record spoof event: %v", err)
	}
}
