package geofence

import (
	"time"

	"faceclock/models"
)

// ============================================================
// GPS SPOOF DETECTION
// ============================================================

const (
	ReasonAccuracyPoor    = "gps accuracy too poor"
	ReasonAccuracyPerfect = "accuracy suspiciously perfect"
	ReasonSpeed           = "implied speed exceeds plausible maximum"
	ReasonTeleport        = "teleport: large displacement in seconds"
)

// SpoofResult is the verdict for one location sample. IsUsable=false with
// IsSpoofed=false means "GPS unreliable, retry" — a different user-facing
// condition than spoofing.
type SpoofResult struct {
	IsSpoofed  bool
	IsUsable   bool
	Confidence float64
	Reason     string
}

// DetectSpoof evaluates one sample against the previous one. The checks
// short-circuit in a fixed precedence: unusable accuracy, then too-perfect
// accuracy, then teleport, then implied speed. "Bad but plausible" GPS is
// reported differently from "too good to be real".
func DetectSpoof(current models.LocationSample, previous *models.LocationSample, cfg models.GeofenceConfig) SpoofResult {
	if current.AccuracyM > cfg.AccuracyCeilingM {
		return SpoofResult{IsUsable: false, Reason: ReasonAccuracyPoor}
	}

	if current.AccuracyM <= 0 || current.AccuracyM < cfg.PerfectAccuracyM {
		return SpoofResult{IsSpoofed: true, IsUsable: false, Confidence: 0.8, Reason: ReasonAccuracyPerfect}
	}

	if previous != nil {
		distanceM := HaversineMeters(previous.Lat, previous.Lng, current.Lat, current.Lng)
		elapsed := time.Duration(current.TimestampMs-previous.TimestampMs) * time.Millisecond

		// Teleport trumps the speed computation entirely.
		if elapsed > 0 && elapsed < cfg.TeleportWindow && distanceM > cfg.TeleportDistanceM {
			return SpoofResult{IsSpoofed: true, IsUsable: false, Confidence: 0.95, Reason: ReasonTeleport}
		}

		// Speed only over gaps wide enough to dodge division-by-near-zero noise.
		if elapsed > cfg.MinSpeedGap {
			speedKMH := distanceM / 1000.0 / elapsed.Hours()
			if speedKMH > cfg.MaxSpeedKMH {
				return SpoofResult{IsSpoofed: true, IsUsable: false, Confidence: 0.85, Reason: ReasonSpeed}
			}
		}
	}

	return SpoofResult{IsUsable: true}
}
