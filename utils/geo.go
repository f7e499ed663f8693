package utils

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// PodMaxDistanceM is how far a delivery fix may sit from the known
// destination before the proof-of-delivery is flagged implausible.
const PodMaxDistanceM = 5000.0

// DistanceM returns the great-circle distance in meters between two
// lat/lon pairs.
func DistanceM(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.Distance(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// PlausiblePOD reports whether a delivery fix lies within the accepted
// radius of the destination. Unknown destinations (0,0) always pass.
func PlausiblePOD(fixLat, fixLon, destLat, destLon float64) bool {
	if destLat == 0 && destLon == 0 {
		return true
	}
	return DistanceM(fixLat, fixLon, destLat, destLon) <= PodMaxDistanceM
}
