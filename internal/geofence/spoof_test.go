package geofence

import (
	"strings"
	"testing"

	"faceclock/models"
)

func spoofConfig() models.GeofenceConfig {
	return models.GeofenceConfig{
		AccuracyCeilingM:  models.DefaultAccuracyCeiling,
		PerfectAccuracyM:  models.DefaultPerfectAccuracy,
		MaxSpeedKMH:       models.DefaultMaxSpeedKMH,
		MinSpeedGap:       models.DefaultMinSpeedGap,
		TeleportDistanceM: models.DefaultTeleportMeters,
		TeleportWindow:    models.DefaultTeleportWindow,
	}
}

func sample(lat, lng, accuracy float64, tsMs int64) models.LocationSample {
	return models.LocationSample{Lat: lat, Lng: lng, AccuracyM: accuracy, TimestampMs: tsMs}
}

func TestDetectSpoofStationary(t *testing.T) {
	prev := sample(baseLat, baseLng, 10, 1000)
	cur := sample(baseLat, baseLng, 10, 11000)

	r := DetectSpoof(cur, &prev, spoofConfig())
	if r.IsSpoofed || !r.IsUsable {
		t.Errorf("stationary 10m-accuracy sample flagged: %+v", r)
	}
}

func TestDetectSpoofAccuracyPrecedence(t *testing.T) {
	// Too poor beats everything else.
	r := DetectSpoof(sample(baseLat, baseLng, 250, 1000), nil, spoofConfig())
	if r.IsSpoofed || r.IsUsable || r.Reason != ReasonAccuracyPoor {
		t.Errorf("poor accuracy should be unusable-not-spoofed: %+v", r)
	}

	// Suspiciously perfect accuracy flags as spoof.
	for _, acc := range []float64{0, 1.5} {
		r = DetectSpoof(sample(baseLat, baseLng, acc, 1000), nil, spoofConfig())
		if !r.IsSpoofed || r.Reason != ReasonAccuracyPerfect {
			t.Errorf("accuracy %v should flag spoof: %+v", acc, r)
		}
	}
}

func TestDetectSpoofTeleport(t *testing.T) {
	// 50km in 5 seconds.
	prev := sample(baseLat, baseLng, 10, 0)
	cur := sample(baseLat+0.45, baseLng, 10, 5000)

	r := DetectSpoof(cur, &prev, spoofConfig())
	if !r.IsSpoofed {
		t.Fatalf("50km in 5s should be spoofed: %+v", r)
	}
	if r.Confidence < 0.9 {
		t.Errorf("teleport should carry high confidence, got %v", r.Confidence)
	}
	if !strings.Contains(r.Reason, "teleport") {
		t.Errorf("reason should mention teleport, got %q", r.Reason)
	}
}

func TestDetectSpoofImpliedSpeed(t *testing.T) {
	// ~22km in 60 seconds ≈ 1330 km/h.
	prev := sample(baseLat, baseLng, 10, 0)
	cur := sample(baseLat+0.2, baseLng, 10, 60000)

	r := DetectSpoof(cur, &prev, spoofConfig())
	if !r.IsSpoofed || r.Reason != ReasonSpeed {
		t.Errorf("1300km/h should be spoofed via speed check: %+v", r)
	}

	// Same displacement over two hours is an honest commute.
	cur.TimestampMs = 2 * 60 * 60 * 1000
	r = DetectSpoof(cur, &prev, spoofConfig())
	if r.IsSpoofed {
		t.Errorf("11km/h should pass: %+v", r)
	}
}

func TestDetectSpoofShortGapSkipsSpeed(t *testing.T) {
	// 100m in 2 seconds is 180km/h but the gap is under the noise floor,
	// and 100m in 2s is nowhere near the teleport case.
	prev := sample(baseLat, baseLng, 10, 0)
	cur := sample(offsetNorth(100), baseLng, 10, 2000)

	r := DetectSpoof(cur, &prev, spoofConfig())
	if r.IsSpoofed {
		t.Errorf("sub-gap speed noise must not flag spoof: %+v", r)
	}
}
