package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000

// Fix is a GPS coordinate pair. A *Fix is nil while the device has no fix yet.
type Fix struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMeters calculates the great-circle distance between two GPS
// coordinates in meters using the haversine formula.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	Δφ := (lat2 - lat1) * math.Pi / 180
	Δλ := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Verdict is a geofence evaluation result. Distance is nil when no fix was
// available — "no fix yet" is a distinct state, not an error.
type Verdict struct {
	Distance *float64 `json:"distance"`
	InRange  bool     `json:"in_range"`
}

// Evaluate computes the distance from current to anchor and compares it to
// thresholdMeters. A nil current fix yields an unknown distance and
// InRange=false; callers surface that as "waiting for GPS".
func Evaluate(current *Fix, anchor Fix, thresholdMeters float64) Verdict {
	if current == nil {
		return Verdict{}
	}

	d := DistanceMeters(current.Lat, current.Lng, anchor.Lat, anchor.Lng)
	return Verdict{
		Distance: &d,
		InRange:  d <= thresholdMeters,
	}
}
