package http

import (
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/pkg/config"
)

// allSports are the values the web client sends for "any sport".
var allSports = []string{"Alle", "all"}

// parseMatchQuery reads the /v1/matches query string. Malformed values are
// dropped rather than rejected, so a bad filter widens the search.
func parseMatchQuery(c *fiber.Ctx, cfg config.SearchConfig) domain.MatchQuery {
	var q domain.MatchQuery

	q.Sport = normalizeSport(c.Query("sport"))
	q.DateFrom = parseDay(c.Query("dateFrom"))
	q.DateTo = parseDay(c.Query("dateTo"))

	lat := c.QueryFloat("lat", math.NaN())
	lng := c.QueryFloat("lng", math.NaN())
	if !math.IsNaN(lat) && !math.IsNaN(lng) {
		q.Center = &domain.GeoPoint{Lat: lat, Lng: lng}
	}
	r := c.QueryFloat("distance", math.NaN())
	if math.IsNaN(r) {
		r = c.QueryFloat("radius", math.NaN())
	}
	if !math.IsNaN(r) {
		q.RadiusKm = &r
	}

	q.Limit = clampLimit(c.QueryInt("limit", 0), cfg)
	return q
}

func normalizeSport(s string) string {
	s = strings.TrimSpace(s)
	for _, all := range allSports {
		if strings.EqualFold(s, all) {
			return ""
		}
	}
	return s
}

func parseDay(s string) *time.Time {
	if s == "" {
		return nil
	}
	d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return nil
	}
	return &d
}

func clampLimit(n int, cfg config.SearchConfig) int {
	switch {
	case n <= 0:
		return cfg.DefaultLimit
	case cfg.MaxLimit > 0 && n > cfg.MaxLimit:
		return cfg.MaxLimit
	}
	return n
}
