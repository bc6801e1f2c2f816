package geofence

import (
	"encoding/json"
	"math"
	"testing"

	"faceclock/models"
)

// Hanoi office from real field data; 1 degree of latitude ≈ 111.2 km.
const (
	baseLat = 20.9725054
	baseLng = 105.7575887
)

// offsetNorth returns a latitude roughly meters north of baseLat.
func offsetNorth(meters float64) float64 {
	return baseLat + meters/111194.9
}

func circularSite(radius float64) models.Site {
	return models.Site{
		Id: 1, Name: "HQ", CenterLat: baseLat, CenterLng: baseLng,
		RadiusMeters: radius, IsActive: true,
	}
}

func TestHaversineZeroAndKnownDistance(t *testing.T) {
	if d := HaversineMeters(baseLat, baseLng, baseLat, baseLng); d != 0 {
		t.Errorf("zero displacement gave %v m", d)
	}
	d := HaversineMeters(baseLat, baseLng, offsetNorth(200), baseLng)
	if math.Abs(d-200) > 2 {
		t.Errorf("200m displacement measured as %v m", d)
	}
}

func TestIsInsideCircle(t *testing.T) {
	site := circularSite(200)

	if !IsInside(offsetNorth(150), baseLng, site) {
		t.Error("150m inside a 200m radius should pass")
	}
	if IsInside(offsetNorth(250), baseLng, site) {
		t.Error("250m outside a 200m radius should fail")
	}
	// Exact boundary counts as inside (≤, not <).
	boundary := models.Site{CenterLat: baseLat, CenterLng: baseLng, RadiusMeters: HaversineMeters(baseLat, baseLng, offsetNorth(100), baseLng), IsActive: true}
	if !IsInside(offsetNorth(100), baseLng, boundary) {
		t.Error("point exactly on the boundary should count as inside")
	}
}

func TestIsInsidePolygon(t *testing.T) {
	ring := [][2]float64{
		{105.757, 20.972},
		{105.759, 20.972},
		{105.759, 20.974},
		{105.757, 20.974},
		{105.757, 20.972}, // closed
	}
	raw, _ := json.Marshal(ring)
	site := models.Site{Id: 2, Name: "Yard", PolygonRing: raw, IsActive: true}

	if !IsInside(20.973, 105.758, site) {
		t.Error("point inside the ring should pass")
	}
	if IsInside(20.980, 105.758, site) {
		t.Error("point outside the ring should fail")
	}

	// Unclosed ring is invalid geometry and must fail closed.
	open, _ := json.Marshal(ring[:4])
	site.PolygonRing = open
	if IsInside(20.973, 105.758, site) {
		t.Error("unclosed polygon must reject, not silently pass")
	}
}

func TestEvaluateMultiSite(t *testing.T) {
	near := circularSite(200)
	far := models.Site{
		Id: 2, Name: "Depot", CenterLat: baseLat + 1, CenterLng: baseLng,
		RadiusMeters: 100, IsActive: true,
	}

	v := Evaluate(offsetNorth(150), baseLng, []models.Site{far, near})
	if !v.Inside || v.SiteId != 1 {
		t.Errorf("should be inside HQ, got %+v", v)
	}

	v = Evaluate(offsetNorth(250), baseLng, []models.Site{far, near})
	if v.Inside {
		t.Fatalf("250m out should be outside everything, got %+v", v)
	}
	if v.SiteId != 1 {
		t.Errorf("feedback should reference the nearest site, got %+v", v)
	}
	if math.Abs(v.DistanceM-50) > 2 {
		t.Errorf("excess distance should be ≈50m, got %v", v.DistanceM)
	}

	// Inactive sites never grant access.
	disabled := near
	disabled.IsActive = false
	v = Evaluate(offsetNorth(150), baseLng, []models.Site{disabled})
	if v.Inside {
		t.Error("inactive site must not grant containment")
	}
}
