package scanner

import (
	"log"
	"sync"
	"time"

	"faceclock/internal/geofence"
	"faceclock/models"
)

// ============================================================
// LOCATION GATE
// ============================================================

// How long a GPS sample stays trustworthy. Past this the gate fails closed
// until the kiosk pushes a fresh reading.
const locationTTL = 30 * time.Second

// LocationGate holds the kiosk's latest GPS state. The gate is fail-closed:
// no sample, a stale sample, or a spoof verdict all block attendance
// decisions until a clean reading arrives.
type LocationGate struct {
	cfg models.GeofenceConfig

	mu       sync.Mutex
	current  *models.LocationSample
	previous *models.LocationSample
	lastBad  geofence.SpoofResult
}

func NewLocationGate(cfg models.GeofenceConfig) *LocationGate {
	return &LocationGate{cfg: cfg}
}

// Push evaluates one incoming sample. Samples that fail the spoof checks are
// never stored as "current", but still become the motion baseline so a
// spoofer cannot reset the teleport detector by sending garbage in between.
func (g *LocationGate) Push(sample models.LocationSample) geofence.SpoofResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	if sample.TimestampMs <= 0 {
		log.Println("⚠️ Location sample without a timestamp, dropped")
		return geofence.SpoofResult{IsUsable: false, Reason: "missing timestamp"}
	}

	result := geofence.DetectSpoof(sample, g.previous, g.cfg)
	g.previous = &sample

	if result.IsUsable {
		g.current = &sample
	} else {
		g.current = nil
		g.lastBad = result
		if result.IsSpoofed {
			log.Printf("🛑 Spoof suspected: %s (confidence %.2f)", result.Reason, result.Confidence)
		}
	}
	return result
}

// Current returns the latest usable sample, or nil when the gate is closed.
func (g *LocationGate) Current(now time.Time) *models.LocationSample {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return nil
	}
	age := now.Sub(time.UnixMilli(g.current.TimestampMs))
	if age > locationTTL {
		return nil
	}
	return g.current
}

// LastProblem describes why the gate is closed, for operator feedback.
func (g *LocationGate) LastProblem() geofence.SpoofResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastBad
}
