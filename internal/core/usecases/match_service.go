package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/core/ports"
	"github.com/hoply/hoply/internal/core/search"
	"github.com/hoply/hoply/internal/pkg/metrics"
)

const (
	catalogVersionKey = "matches:catalog_version"
	matchQueryTTL     = 60 // seconds; catalog updates also rotate the key
	catalogVersionTTL = 7 * 24 * 3600
)

var tracer = otel.Tracer("github.com/hoply/hoply/internal/core/usecases")

// MatchService answers match searches.
type MatchService struct {
	matches ports.MatchRepository
	cache   ports.CacheService
	ttl     int
	version atomic.Value // string
}

// NewMatchService creates a new MatchService. cache may be nil.
func NewMatchService(matches ports.MatchRepository, cache ports.CacheService) *MatchService {
	s := &MatchService{matches: matches, cache: cache, ttl: matchQueryTTL}
	s.version.Store("0")
	return s
}

// WithQueryTTL sets how long query results stay cached, in seconds.
func (s *MatchService) WithQueryTTL(seconds int) *MatchService {
	if seconds > 0 {
		s.ttl = seconds
	}
	return s
}

// Query returns the matches satisfying q, ordered by date and time and
// truncated to the query limit. Data-source failures come back wrapped in
// domain.ErrQueryFailed; an empty result is not an error.
func (s *MatchService) Query(ctx context.Context, q domain.MatchQuery) ([]domain.Match, error) {
	ctx, span := tracer.Start(ctx, "MatchService.Query")
	defer span.End()

	located := q.LocationActive()
	span.SetAttributes(
		attribute.String("match.sport", q.Sport),
		attribute.Bool("match.located", located),
		attribute.Int("match.limit", q.EffectiveLimit()),
	)

	cacheKey := s.cacheKey(q)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var matches []domain.Match
			if err := json.Unmarshal(data, &matches); err == nil {
				metrics.CacheHits.WithLabelValues("matches").Inc()
				return matches, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("matches").Inc()
	}

	candidates, err := s.matches.ListCandidates(ctx, search.Candidates(q))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list candidates")
		return nil, fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}

	matches, st := search.Filter(candidates, q)
	metrics.ObserveMatchQuery(located, st.Candidates, st.BoxRejected, st.DistanceRejected, st.Returned)
	span.SetAttributes(
		attribute.Int("match.candidates", st.Candidates),
		attribute.Int("match.returned", st.Returned),
	)
	slog.DebugContext(ctx, "match query",
		"sport", q.Sport, "located", located,
		"candidates", st.Candidates, "box_rejected", st.BoxRejected,
		"distance_rejected", st.DistanceRejected, "returned", st.Returned)

	if s.cache != nil {
		if data, err := json.Marshal(matches); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.ttl)
		}
	}

	return matches, nil
}

// GetByID returns a single match.
func (s *MatchService) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	m, err := s.matches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}
	return m, nil
}

// CatalogVersion returns the catalog version cached results are keyed on.
func (s *MatchService) CatalogVersion() string {
	return s.version.Load().(string)
}

// LoadCatalogVersion picks up the version other instances last stored.
func (s *MatchService) LoadCatalogVersion(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if data, err := s.cache.Get(ctx, catalogVersionKey); err == nil && len(data) > 0 {
		s.version.Store(string(data))
	}
}

// HandleCatalogUpdate rotates the cache version so results cached before an
// import are never served again.
func (s *MatchService) HandleCatalogUpdate(ctx context.Context, u *domain.CatalogUpdate) error {
	if u == nil || u.Version == "" {
		return fmt.Errorf("catalog update without version")
	}
	s.version.Store(u.Version)
	metrics.CatalogUpdates.Inc()
	slog.InfoContext(ctx, "match catalog updated",
		"version", u.Version, "source", u.Source, "matches", u.Matches)

	if s.cache != nil {
		if err := s.cache.Set(ctx, catalogVersionKey, []byte(u.Version), catalogVersionTTL); err != nil {
			slog.WarnContext(ctx, "store catalog version", "error", err)
		}
	}
	return nil
}

func (s *MatchService) cacheKey(q domain.MatchQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "matches:q:%s:%q:", s.CatalogVersion(), q.Sport)
	if q.DateFrom != nil {
		b.WriteString(q.DateFrom.UTC().Format("2006-01-02"))
	}
	b.WriteByte(':')
	if q.DateTo != nil {
		b.WriteString(q.DateTo.UTC().Format("2006-01-02"))
	}
	b.WriteByte(':')
	if q.LocationActive() {
		// Exact float text: two distinct queries must never share a key.
		b.WriteString(formatFloat(q.Center.Lat))
		b.WriteByte(',')
		b.WriteString(formatFloat(q.Center.Lng))
		b.WriteByte(',')
		b.WriteString(formatFloat(*q.RadiusKm))
	}
	fmt.Fprintf(&b, ":%d", q.EffectiveLimit())
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
