package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const httpDate = "Mon, 02 Jan 2006 15:04:05 GMT"

// LegacyRoute is a path kept for old clients until Sunset.
type LegacyRoute struct {
	Path      string
	Sunset    time.Time
	Successor string
}

// LegacyRoutes lists the unversioned paths the first web client used.
var LegacyRoutes = []LegacyRoute{
	{Path: "/matches", Sunset: time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC), Successor: "/v1/matches"},
}

// DeprecationMiddleware adds RFC 8594 Deprecation and Sunset headers, plus
// a successor-version Link, to legacy paths.
func DeprecationMiddleware(routes []LegacyRoute) fiber.Handler {
	byPath := make(map[string]LegacyRoute, len(routes))
	for _, r := range routes {
		byPath[r.Path] = r
	}
	return func(c *fiber.Ctx) error {
		if r, ok := byPath[c.Path()]; ok {
			c.Set("Deprecation", "true")
			c.Set("Sunset", r.Sunset.UTC().Format(httpDate))
			if r.Successor != "" {
				c.Set(fiber.HeaderLink, fmt.Sprintf(`<%s>; rel="successor-version"`, r.Successor))
			}
		}
		return c.Next()
	}
}
