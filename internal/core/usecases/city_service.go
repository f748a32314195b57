package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/core/ports"
	"github.com/hoply/hoply/internal/core/search"
	"github.com/hoply/hoply/internal/pkg/metrics"
)

// CityService resolves place names to coordinates.
type CityService struct {
	cities    ports.CityRepository
	cache     ports.CacheService
	minPrefix int
	limit     int
}

// NewCityService creates a new CityService. cache may be nil.
func NewCityService(cities ports.CityRepository, cache ports.CacheService) *CityService {
	return &CityService{
		cities:    cities,
		cache:     cache,
		minPrefix: search.MinCityPrefix,
		limit:     search.CityLimit,
	}
}

// WithLimits overrides the shortest searchable prefix and the result cap.
// Non-positive values keep the defaults.
func (s *CityService) WithLimits(minPrefix, limit int) *CityService {
	if minPrefix > 0 {
		s.minPrefix = minPrefix
	}
	if limit > 0 {
		s.limit = limit
	}
	return s
}

// Search returns the most populous cities whose name starts with prefix.
// Prefixes shorter than two characters yield an empty list.
func (s *CityService) Search(ctx context.Context, prefix string) ([]domain.City, error) {
	if !search.CityPrefixValid(prefix, s.minPrefix) {
		return []domain.City{}, nil
	}

	ctx, span := tracer.Start(ctx, "CityService.Search")
	defer span.End()
	span.SetAttributes(attribute.String("city.prefix", prefix))

	cacheKey := fmt.Sprintf("cities:prefix:%d:%q", s.limit, prefix)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cities []domain.City
			if err := json.Unmarshal(data, &cities); err == nil {
				metrics.CacheHits.WithLabelValues("cities").Inc()
				return cities, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("cities").Inc()
	}

	cities, err := s.cities.SearchPrefix(ctx, prefix, s.limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}
	if cities == nil {
		cities = []domain.City{}
	}
	search.SortCities(cities)
	if len(cities) > s.limit {
		cities = cities[:s.limit]
	}
	metrics.CitySearches.Inc()

	// Cities barely change; cache for an hour.
	if s.cache != nil {
		if data, err := json.Marshal(cities); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 3600)
		}
	}

	return cities, nil
}
