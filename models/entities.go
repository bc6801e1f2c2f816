package models

import (
	"encoding/json"
	"time"
)

// ============================================================
// DATABASE ENTITIES
// ============================================================

// WorkerProfile stores one enrolled worker. The embedding column keeps the
// raw JSON array from enrollment; Vector is the decoded helper used in code.
type WorkerProfile struct {
	Id         int64           `gorm:"primaryKey" json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	BaseRate   float64         `json:"base_rate"`
	PhotoPath  string          `json:"photo_path"`
	Embedding  json.RawMessage `gorm:"type:json" json:"-"`
	Vector     []float64       `gorm:"-" json:"embedding,omitempty"`
	IsActive   bool            `gorm:"index" json:"is_active"`
	EnrolledAt *time.Time      `json:"enrolled_at"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (WorkerProfile) TableName() string {
	return "worker_profiles"
}

// AttendanceRecord is one worker-day row. worker_id+work_date carries a
// unique index so concurrent first scans cannot create duplicates.
type AttendanceRecord struct {
	Id           int64      `gorm:"primaryKey" json:"id"`
	WorkerId     int64      `gorm:"uniqueIndex:idx_worker_date" json:"worker_id"`
	WorkDate     string     `gorm:"uniqueIndex:idx_worker_date;size:10" json:"work_date"` // YYYY-MM-DD
	CheckInTime  *time.Time `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time"`
	Status       string     `json:"status"` // PRESENT | LEFT | CLOSED
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// Site is one allowed check-in boundary. A circular site has RadiusMeters > 0;
// a polygon site stores its closed ring as JSON [[lng,lat],...].
type Site struct {
	Id           int64           `gorm:"primaryKey" json:"id"`
	Name         string          `json:"name"`
	CenterLat    float64         `json:"center_lat"`
	CenterLng    float64         `json:"center_lng"`
	RadiusMeters float64         `json:"radius_meters"`
	PolygonRing  json.RawMessage `gorm:"type:json" json:"polygon_ring,omitempty"`
	IsActive     bool            `gorm:"index" json:"is_active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Site) TableName() string {
	return "sites"
}

// AccessOverride is an admin-approved, time-boxed geofence exemption for one
// worker. The guard only reads it; approval is someone else's problem.
type AccessOverride struct {
	Id         int64     `gorm:"primaryKey" json:"id"`
	WorkerId   int64     `gorm:"index" json:"worker_id"`
	SiteId     int64     `json:"site_id"`
	ApprovedBy string    `json:"approved_by"`
	ExpiresAt  time.Time `gorm:"index" json:"expires_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AccessOverride) TableName() string {
	return "access_overrides"
}

// SpoofEvent is the security audit trail for suspected GPS spoofing.
type SpoofEvent struct {
	Id         int64     `gorm:"primaryKey" json:"id"`
	SessionId  string    `gorm:"size:40" json:"session_id"`
	Reason     string    `json:"reason"`
	Confidence float64   `json:"confidence"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (SpoofEvent) TableName() string {
	return "spoof_events"
}
