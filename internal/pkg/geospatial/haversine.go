package geospatial

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used for every distance computed here.
	EarthRadiusKm = 6371.0

	// boxEpsilonDeg widens box edges so float rounding never excludes a point
	// that sits exactly on the radius.
	boxEpsilonDeg = 1e-9
)

// Haversine calculates the great-circle distance in kilometres between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Box is a latitude/longitude rectangle. When WrapsLon is set the longitude
// band crosses the antimeridian and MinLon > MaxLon.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	WrapsLon       bool
}

// BoundingBox returns a box that contains every point within radiusKm of
// (lat, lon) on the 6371 km sphere.
//
// The latitude half-width is the angular radius itself. The longitude
// half-width is asin(sin θ / cos φ). When the circle reaches a pole every
// longitude is included.
func BoundingBox(lat, lon, radiusKm float64) Box {
	theta := radiusKm / EarthRadiusKm // angular radius in radians
	latDelta := toDeg(theta)

	b := Box{
		MinLat: lat - latDelta - boxEpsilonDeg,
		MaxLat: lat + latDelta + boxEpsilonDeg,
		MinLon: -180,
		MaxLon: 180,
	}

	if b.MaxLat >= 90 || b.MinLat <= -90 || theta >= math.Pi/2 {
		b.MinLat = math.Max(b.MinLat, -90)
		b.MaxLat = math.Min(b.MaxLat, 90)
		return b
	}

	ratio := math.Sin(theta) / math.Cos(toRad(lat))
	if ratio >= 1 {
		return b
	}
	lonDelta := toDeg(math.Asin(ratio)) + boxEpsilonDeg
	if lonDelta >= 180 {
		return b
	}

	b.MinLon = normalizeLon(lon - lonDelta)
	b.MaxLon = normalizeLon(lon + lonDelta)
	b.WrapsLon = b.MinLon > b.MaxLon
	return b
}

// Contains reports whether the point lies inside the box.
func (b Box) Contains(lat, lon float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	lon = normalizeLon(lon)
	if b.WrapsLon {
		return lon >= b.MinLon || lon <= b.MaxLon
	}
	return lon >= b.MinLon && lon <= b.MaxLon
}

// FullLongitude reports whether the box spans every meridian.
func (b Box) FullLongitude() bool {
	return !b.WrapsLon && b.MinLon <= -180 && b.MaxLon >= 180
}

// ValidPoint reports whether lat/lon are finite WGS 84 degrees.
func ValidPoint(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// normalizeLon maps lon into [-180, 180] in constant time.
func normalizeLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
