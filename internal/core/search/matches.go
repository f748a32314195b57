// Package search holds the pure match and city lookup logic shared by every
// storage backend.
package search

import (
	"sort"
	"time"

	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/pkg/geospatial"
)

// Stats describes how many records each filtering stage removed.
type Stats struct {
	Candidates       int
	SportRejected    int
	DateRejected     int
	NoLocation       int
	BoxRejected      int
	DistanceRejected int
	Matched          int
	Returned         int
}

// Filter applies q to records and returns the survivors ordered by
// (event_date, event_time, id) and truncated to the query limit.
//
// records is never modified. The bounding box only narrows the candidate
// set; the Haversine test alone decides which located records are kept.
func Filter(records []domain.Match, q domain.MatchQuery) ([]domain.Match, Stats) {
	st := Stats{Candidates: len(records)}

	var from, to int
	if q.DateFrom != nil {
		from = dateKey(*q.DateFrom)
	}
	if q.DateTo != nil {
		to = dateKey(*q.DateTo)
	}

	located := q.LocationActive()
	var (
		center domain.GeoPoint
		radius float64
		box    geospatial.Box
	)
	if located {
		center, radius = *q.Center, *q.RadiusKm
		box = geospatial.BoundingBox(center.Lat, center.Lng, radius)
	}

	out := make([]domain.Match, 0)
	for _, m := range records {
		if q.Sport != "" && m.Sport != q.Sport {
			st.SportRejected++
			continue
		}

		if q.DateFrom != nil || q.DateTo != nil {
			if m.EventDate == nil {
				st.DateRejected++
				continue
			}
			d := dateKey(*m.EventDate)
			if (q.DateFrom != nil && d < from) || (q.DateTo != nil && d > to) {
				st.DateRejected++
				continue
			}
		}

		if located {
			p, ok := m.Location()
			if !ok {
				st.NoLocation++
				continue
			}
			if !box.Contains(p.Lat, p.Lng) {
				st.BoxRejected++
				continue
			}
			if geospatial.Haversine(center.Lat, center.Lng, p.Lat, p.Lng) > radius {
				st.DistanceRejected++
				continue
			}
		}

		out = append(out, m)
	}

	SortMatches(out)
	st.Matched = len(out)

	if limit := q.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	st.Returned = len(out)
	return out, st
}

// SortMatches orders matches by event date, then event time, then id.
// Missing dates and times sort first.
func SortMatches(ms []domain.Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		return Less(&ms[i], &ms[j])
	})
}

// Less reports whether a sorts before b.
func Less(a, b *domain.Match) bool {
	if c := compareDate(a.EventDate, b.EventDate); c != 0 {
		return c < 0
	}
	if c := compareTime(a.EventTime, b.EventTime); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

func compareDate(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return compareInt(dateKey(*a), dateKey(*b))
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// dateKey turns a date into yyyymmdd in UTC.
func dateKey(t time.Time) int {
	y, m, d := t.UTC().Date()
	return y*10000 + int(m)*100 + d
}

// Candidates derives the pushdown filter a data source may apply before Filter.
func Candidates(q domain.MatchQuery) domain.CandidateFilter {
	cf := domain.CandidateFilter{
		Sport:    q.Sport,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
	}
	if q.LocationActive() {
		b := geospatial.BoundingBox(q.Center.Lat, q.Center.Lng, *q.RadiusKm)
		cf.Bounds = &domain.Bounds{
			MinLat:   b.MinLat,
			MaxLat:   b.MaxLat,
			MinLng:   b.MinLon,
			MaxLng:   b.MaxLon,
			WrapsLng: b.WrapsLon,
		}
	}
	return cf
}
