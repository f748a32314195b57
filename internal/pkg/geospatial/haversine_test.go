package geospatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine_KnownDistances(t *testing.T) {
	// Berlin Mitte to Brandenburger Tor.
	d := Haversine(52.5200, 13.4050, 52.5163, 13.3777)
	assert.InDelta(t, 1.9, d, 0.2)

	// Berlin Mitte to Schönefeld.
	d = Haversine(52.5200, 13.4050, 52.3667, 13.5033)
	assert.InDelta(t, 18.2, d, 0.5)

	assert.Zero(t, Haversine(43.263, -2.935, 43.263, -2.935))
}

func TestHaversine_Symmetric(t *testing.T) {
	a := Haversine(40.4168, -3.7038, 48.8566, 2.3522)
	b := Haversine(48.8566, 2.3522, 40.4168, -3.7038)
	assert.InDelta(t, a, b, 1e-9)
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	b := BoundingBox(52.52, 13.405, 5)
	assert.True(t, b.Contains(52.52, 13.405))
	assert.False(t, b.WrapsLon)
	assert.Less(t, b.MinLat, 52.52)
	assert.Greater(t, b.MaxLat, 52.52)
}

func TestBoundingBox_WiderThanNominal(t *testing.T) {
	lat, radius := 60.0, 25.0
	b := BoundingBox(lat, 10, radius)

	nominalLat := radius / 111.32
	nominalLon := radius / (111.32 * math.Cos(lat*math.Pi/180))

	assert.LessOrEqual(t, b.MinLat, lat-nominalLat)
	assert.GreaterOrEqual(t, b.MaxLat, lat+nominalLat)
	assert.LessOrEqual(t, b.MinLon, 10-nominalLon)
	assert.GreaterOrEqual(t, b.MaxLon, 10+nominalLon)
}

func TestBoundingBox_Antimeridian(t *testing.T) {
	b := BoundingBox(-17.7, 179.95, 30)
	require.True(t, b.WrapsLon)
	assert.True(t, b.Contains(-17.7, -179.9))
	assert.True(t, b.Contains(-17.7, 179.9))
	assert.False(t, b.Contains(-17.7, 170))
}

func TestBoundingBox_Pole(t *testing.T) {
	b := BoundingBox(89.9, 0, 50)
	assert.True(t, b.FullLongitude())
	assert.True(t, b.Contains(89.95, 179))
}

// The box is only an accelerator: it must never drop a point that the exact
// distance test keeps.
func TestBoundingBox_NeverRejectsWithinRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		lat := rng.Float64()*178 - 89
		lon := rng.Float64()*360 - 180
		radius := math.Pow(10, rng.Float64()*4) // 1 km .. 10000 km
		b := BoundingBox(lat, lon, radius)

		for j := 0; j < 50; j++ {
			plat := lat + (rng.Float64()*2-1)*math.Min(90, radius/50)
			plon := lon + (rng.Float64()*2-1)*math.Min(180, radius/20)
			plat = math.Max(-90, math.Min(90, plat))
			plon = normalizeLon(plon)

			if Haversine(lat, lon, plat, plon) <= radius {
				require.Truef(t, b.Contains(plat, plon),
					"center (%f,%f) r=%f rejected (%f,%f)", lat, lon, radius, plat, plon)
			}
		}
	}
}

func TestBoxContains_FarOutLongitude(t *testing.T) {
	b := BoundingBox(52.52, 13.405, 5)
	assert.True(t, b.Contains(52.52, 13.405+360))
	assert.True(t, b.Contains(52.52, 13.405-720))
	assert.False(t, b.Contains(52.52, 1e13))
	assert.False(t, b.Contains(52.52, math.Inf(1)))

	assert.InDelta(t, -170.0, normalizeLon(190), 1e-9)
	assert.InDelta(t, 170.0, normalizeLon(-190), 1e-9)
	assert.Equal(t, 180.0, normalizeLon(180))
	lon := normalizeLon(-1e300)
	assert.True(t, lon >= -180 && lon <= 180)
}

func TestValidPoint(t *testing.T) {
	assert.True(t, ValidPoint(0, 0))
	assert.True(t, ValidPoint(-90, 180))
	assert.False(t, ValidPoint(91, 0))
	assert.False(t, ValidPoint(0, -181))
	assert.False(t, ValidPoint(math.NaN(), 0))
	assert.False(t, ValidPoint(0, math.Inf(1)))
}
