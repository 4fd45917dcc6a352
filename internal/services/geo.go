package services

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"vaccine-availability-notifier/internal/models"
)

const (
	metersPerMile = 1609.344

	// IUGG mean earth radius. orb uses the equatorial radius, which reads
	// about 0.1% long at mid latitudes.
	meanEarthRadius = 6371008.8
)

// DistanceMiles is the great-circle (haversine) distance between two points
// on a sphere of the mean earth radius. Against the ellipsoidal distance it
// stays within about 0.5%, depending on latitude and bearing.
func DistanceMiles(a, b models.Coordinates) float64 {
	meters := geo.DistanceHaversine(toPoint(a), toPoint(b)) * meanEarthRadius / orb.EarthRadius
	return meters / metersPerMile
}

// WithinRadius reports whether b lies within radius miles of a, inclusive
func WithinRadius(a, b models.Coordinates, radius float64) bool {
	return DistanceMiles(a, b) <= radius
}

func toPoint(c models.Coordinates) orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}
