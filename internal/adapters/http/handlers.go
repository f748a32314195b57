package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ListMatchesHandler answers match searches. An empty result is a 200 with [].
func ListMatchesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := parseMatchQuery(c, deps.Search)
		matches, err := deps.Matches.Query(c.UserContext(), q)
		if err != nil {
			return errInternal(c, "match query failed", err)
		}
		c.Set("X-Catalog-Version", deps.Matches.CatalogVersion())
		return c.JSON(matches)
	}
}

// GetMatchHandler returns a single match by id.
func GetMatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseMatchID(c.Params("id"))
		if err != nil {
			return errBadRequest(c, "id must be an integer")
		}
		m, err := deps.Matches.GetByID(c.UserContext(), id)
		if err != nil {
			return fromDomainError(c, "get match failed", err)
		}
		return c.JSON(m)
	}
}

// SearchCitiesHandler looks cities up by name prefix.
func SearchCitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cities, err := deps.Cities.Search(c.UserContext(), strings.TrimSpace(c.Query("q")))
		if err != nil {
			return errInternal(c, "city search failed", err)
		}
		return c.JSON(cities)
	}
}

func parseMatchID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
