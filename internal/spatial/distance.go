package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// HaversineDistance returns the great-circle distance between two points
// on a sphere of the given radius, in the radius' units.
func HaversineDistance(lat1, lon1, lat2, lon2, radius float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * radius
}

// PathAngle returns the central angle in degrees covered by a polyline of
// [lat, lon] points.
func PathAngle(points [][2]float64) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		total += HaversineDistance(a[0], a[1], b[0], b[1], 180/math.Pi)
	}
	return total
}

// DestinationPoint returns the point reached from (lat, lon) after
// travelling angle degrees along the great circle with the given initial
// bearing (0 = north, 90 = east).
func DestinationPoint(lat, lon, bearing, angle float64) (float64, float64) {
	p := s2.LatLngFromDegrees(lat, lon)
	bearingRad := bearing * math.Pi / 180
	angular := angle * math.Pi / 180

	latRad := p.Lat.Radians()
	lonRad := p.Lng.Radians()

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(angular) +
		math.Cos(latRad)*math.Sin(angular)*math.Cos(bearingRad))

	lon2 := lonRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(lat2))

	return lat2 * 180 / math.Pi, normalizeLongitude(lon2 * 180 / math.Pi)
}

// GreatCircleArc samples the arc that starts at (lat, lon) with the given
// heading and spans angle degrees. The result has samples+1 [lat, lon]
// points including both ends. angle is limited to (0, 180).
func GreatCircleArc(lat, lon, heading, angle float64, samples int) [][2]float64 {
	if samples < 1 {
		samples = 1
	}
	if angle <= 0 || math.IsNaN(angle) {
		return [][2]float64{{lat, lon}}
	}
	if angle >= 180 {
		angle = 179.9
	}

	endLat, endLon := DestinationPoint(lat, lon, heading, angle)
	a := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(endLat, endLon))

	points := make([][2]float64, 0, samples+1)
	for i := 0; i <= samples; i++ {
		ll := s2.LatLngFromPoint(s2.Interpolate(float64(i)/float64(samples), a, b))
		points = append(points, [2]float64{ll.Lat.Degrees(), ll.Lng.Degrees()})
	}
	return points
}

func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	if lon == -180 {
		return 180
	}
	return lon
}
