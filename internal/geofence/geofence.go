package geofence

import (
	"encoding/json"
	"math"

	"faceclock/models"
)

// ============================================================
// DISTANCE CALCULATION (Haversine Formula)
// ============================================================

const earthRadiusMeters = 6371000.0

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// HaversineMeters is the great-circle distance between two coordinates.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLat := toRadians(lat2 - lat1)
	deltaLng := toRadians(lng2 - lng1)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// ============================================================
// SITE CONTAINMENT
// ============================================================

// Verdict reports containment against the whole site set. When outside,
// DistanceM is the excess distance past the nearest site's boundary.
type Verdict struct {
	Inside    bool
	SiteId    int64
	SiteName  string
	DistanceM float64
}

// IsInside tests one point against one site. Circular sites count the exact
// boundary as inside (≤, not <). Polygon sites with an unclosed ring are
// invalid and fail closed.
func IsInside(lat, lng float64, site models.Site) bool {
	if len(site.PolygonRing) > 0 {
		ring, ok := decodeRing(site.PolygonRing)
		if !ok {
			return false
		}
		return pointInRing(lng, lat, ring)
	}
	return HaversineMeters(lat, lng, site.CenterLat, site.CenterLng) <= site.RadiusMeters
}

// Evaluate checks the point against every active site. The worker is
// compliant inside any one of them; otherwise the nearest site's excess
// distance is reported for operator feedback.
func Evaluate(lat, lng float64, sites []models.Site) Verdict {
	verdict := Verdict{DistanceM: math.MaxFloat64}

	for _, site := range sites {
		if !site.IsActive {
			continue
		}
		if IsInside(lat, lng, site) {
			return Verdict{Inside: true, SiteId: site.Id, SiteName: site.Name}
		}
		excess := HaversineMeters(lat, lng, site.CenterLat, site.CenterLng) - site.RadiusMeters
		if excess < 0 {
			excess = 0
		}
		if excess < verdict.DistanceM {
			verdict.SiteId = site.Id
			verdict.SiteName = site.Name
			verdict.DistanceM = excess
		}
	}
	return verdict
}

// ============================================================
// POLYGON CONTAINMENT
// ============================================================

// decodeRing parses a [[lng,lat],...] JSON ring and enforces the closure
// invariant: first and last vertex must coincide.
func decodeRing(raw json.RawMessage) ([][2]float64, bool) {
	var ring [][2]float64
	if err := json.Unmarshal(raw, &ring); err != nil {
		return nil, false
	}
	if len(ring) < 4 {
		return nil, false
	}
	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		return nil, false
	}
	return ring, true
}

// pointInRing is the standard ray-casting test over a closed [lng,lat] ring.
func pointInRing(x, y float64, ring [][2]float64) bool {
	inside := false
	n := len(ring) - 1 // last vertex repeats the first
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
