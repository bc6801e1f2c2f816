package jobs

import (
	"log"
	"time"

	"faceclock/internal/store"

	"github.com/go-co-op/gocron"
)

// ============================================================
// SCHEDULED MAINTENANCE
// ============================================================
//
// Nightly housekeeping: close attendance rows nobody scanned out of, purge
// expired overrides, and refresh the geofence cache periodically.

type Scheduler struct {
	inner      *gocron.Scheduler
	attendance *store.AttendanceRepo
	sites      *store.SiteRepo
}

func NewScheduler(attendance *store.AttendanceRepo, sites *store.SiteRepo) *Scheduler {
	return &Scheduler{
		inner:      gocron.NewScheduler(time.Local),
		attendance: attendance,
		sites:      sites,
	}
}

// Start registers the jobs and runs the scheduler in the background.
func (s *Scheduler) Start() error {
	if _, err := s.inner.Every(1).Day().At("00:10").Do(s.closeDanglingDays); err != nil {
		return err
	}
	if _, err := s.inner.Every(1).Day().At("00:20").Do(s.purgeOverrides); err != nil {
		return err
	}
	if _, err := s.inner.Every(10).Minutes().Do(s.refreshSites); err != nil {
		return err
	}

	s.inner.StartAsync()
	log.Println("✅ Maintenance scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.inner.Stop()
	log.Println("🛑 Maintenance scheduler stopped")
}

func (s *Scheduler) closeDanglingDays() {
	closed, err := s.attendance.CloseDanglingBefore(time.Now())
	if err != nil {
		log.Printf("❌ Dangling-day close failed: %v", err)
		return
	}
	if closed > 0 {
		log.Printf("🧹 Closed %d dangling attendance records", closed)
	}
}

func (s *Scheduler) purgeOverrides() {
	purged, err := s.sites.PurgeExpiredOverrides(time.Now())
	if err != nil {
		log.Printf("❌ Override purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("🧹 Purged %d expired overrides", purged)
	}
}

func (s *Scheduler) refreshSites() {
	if err := s.sites.Refresh(); err != nil {
		log.Printf("❌ Site refresh failed: %v", err)
	}
}
