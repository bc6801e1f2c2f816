package scanner

import (
	"testing"
	"time"

	"faceclock/models"
)

func gateConfig() models.GeofenceConfig {
	return models.GeofenceConfig{
		AccuracyCeilingM:  100,
		PerfectAccuracyM:  3,
		MaxSpeedKMH:       150,
		MinSpeedGap:       3600 * time.Millisecond,
		TeleportDistanceM: 10000,
		TeleportWindow:    10 * time.Second,
	}
}

func sampleAt(lat, lng float64, atMs int64) models.LocationSample {
	return models.LocationSample{Lat: lat, Lng: lng, AccuracyM: 12, TimestampMs: atMs}
}

func TestGateOpensOnCleanSample(t *testing.T) {
	g := NewLocationGate(gateConfig())
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)

	res := g.Push(sampleAt(21.0285, 105.8542, now.UnixMilli()))
	if !res.IsUsable {
		t.Fatalf("clean sample rejected: %+v", res)
	}
	if g.Current(now) == nil {
		t.Fatal("gate closed after a clean sample")
	}
}

func TestGateStartsClosed(t *testing.T) {
	g := NewLocationGate(gateConfig())
	if g.Current(time.Now()) != nil {
		t.Fatal("gate must start closed until a sample arrives")
	}
}

func TestGateRejectsMissingTimestamp(t *testing.T) {
	g := NewLocationGate(gateConfig())
	res := g.Push(models.LocationSample{Lat: 21, Lng: 105, AccuracyM: 12})
	if res.IsUsable {
		t.Fatal("sample without a timestamp accepted")
	}
}

func TestGateClosesOnSpoof(t *testing.T) {
	g := NewLocationGate(gateConfig())
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)

	g.Push(sampleAt(21.0285, 105.8542, now.UnixMilli()))

	// 50km away 5 seconds later: teleport.
	res := g.Push(sampleAt(21.48, 105.8542, now.Add(5*time.Second).UnixMilli()))
	if !res.IsSpoofed {
		t.Fatalf("teleport not flagged: %+v", res)
	}
	if g.Current(now.Add(5*time.Second)) != nil {
		t.Fatal("gate stayed open after a spoof verdict")
	}
	if g.LastProblem().Reason == "" {
		t.Fatal("gate should remember why it closed")
	}
}

func TestGateStalenessFailsClosed(t *testing.T) {
	g := NewLocationGate(gateConfig())
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)

	g.Push(sampleAt(21.0285, 105.8542, now.UnixMilli()))

	if g.Current(now.Add(10*time.Second)) == nil {
		t.Fatal("fresh sample reported stale")
	}
	if g.Current(now.Add(45*time.Second)) != nil {
		t.Fatal("stale sample still open after TTL")
	}
}

func TestGateReopensAfterCleanSample(t *testing.T) {
	g := NewLocationGate(gateConfig())
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)

	g.Push(sampleAt(21.0285, 105.8542, now.UnixMilli()))
	g.Push(sampleAt(21.48, 105.8542, now.Add(5*time.Second).UnixMilli())) // teleport

	// Back at the original spot much later, moving plausibly.
	later := now.Add(2 * time.Hour)
	res := g.Push(sampleAt(21.4801, 105.8542, later.UnixMilli()))
	if !res.IsUsable {
		t.Fatalf("plausible follow-up sample rejected: %+v", res)
	}
	if g.Current(later) == nil {
		t.Fatal("gate should reopen on a clean sample")
	}
}
