// Package geo holds the geofence and distance evaluator: great-circle
// distance between positions and the nested forest/buffer/community zones.
package geo

import (
	"fmt"

	"ElephantWatchAPI/internal/models"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Point converts a position into an orb point (lon, lat order).
func Point(p models.Position) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b models.Position) float64 {
	return orbgeo.DistanceHaversine(Point(a), Point(b))
}

// Kilometers formats a distance in meters as kilometers with two decimals.
func Kilometers(meters float64) string {
	return fmt.Sprintf("%.2f", meters/1000)
}

// DistanceKm is Kilometers(Distance(a, b)).
func DistanceKm(a, b models.Position) string {
	return Kilometers(Distance(a, b))
}
