package domain

import (
	"math"
	"time"
)

// DefaultMatchLimit is used when a query does not ask for a positive limit.
const DefaultMatchLimit = 100

// MatchQuery holds the optional criteria of a match search.
type MatchQuery struct {
	Sport    string     `json:"sport,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Center   *GeoPoint  `json:"center,omitempty"`
	RadiusKm *float64   `json:"radius_km,omitempty"`
	Limit    int        `json:"limit,omitempty"`
}

// LocationActive reports whether the query carries a usable centre and radius.
// Anything else (one without the other, NaN, out of range, radius <= 0)
// means no location filter.
func (q MatchQuery) LocationActive() bool {
	if q.Center == nil || q.RadiusKm == nil {
		return false
	}
	r := *q.RadiusKm
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return false
	}
	c := *q.Center
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// EffectiveLimit returns the limit to truncate to.
func (q MatchQuery) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultMatchLimit
	}
	return q.Limit
}

// CandidateFilter is the part of a MatchQuery a data source may push down.
// Sources must return a superset of the final result.
type CandidateFilter struct {
	Sport    string
	DateFrom *time.Time
	DateTo   *time.Time
	Bounds   *Bounds
}
