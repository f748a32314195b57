package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hoply/hoply/internal/core/domain"
)

const (
	// MinCityPrefix is the shortest prefix a city search answers.
	MinCityPrefix = 2

	// CityLimit caps city search results.
	CityLimit = 5
)

// CityPrefixValid reports whether prefix is long enough to search for.
func CityPrefixValid(prefix string, minLen int) bool {
	return utf8.RuneCountInString(prefix) >= minLen
}

// Cities returns up to limit cities whose name or ASCII name starts with
// prefix (case-sensitive), most populous first.
func Cities(all []domain.City, prefix string, limit int) []domain.City {
	out := make([]domain.City, 0)
	if !CityPrefixValid(prefix, MinCityPrefix) || limit <= 0 {
		return out
	}
	for _, c := range all {
		if strings.HasPrefix(c.Name, prefix) || strings.HasPrefix(c.ASCIIName, prefix) {
			out = append(out, c)
		}
	}
	SortCities(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SortCities orders by population descending, then name, then id.
func SortCities(cs []domain.City) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Population != b.Population {
			return a.Population > b.Population
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}
