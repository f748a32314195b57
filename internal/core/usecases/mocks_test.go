package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/hoply/hoply/internal/core/domain"
)

// --- Mock MatchRepository ---

type mockMatchRepo struct {
	listCandidatesFn func(ctx context.Context, f domain.CandidateFilter) ([]domain.Match, error)
	getByIDFn        func(ctx context.Context, id int64) (*domain.Match, error)
	calls            int
}

func (m *mockMatchRepo) ListCandidates(ctx context.Context, f domain.CandidateFilter) ([]domain.Match, error) {
	m.calls++
	if m.listCandidatesFn != nil {
		return m.listCandidatesFn(ctx, f)
	}
	return nil, nil
}

func (m *mockMatchRepo) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockMatchRepo) UpsertBatch(ctx context.Context, matches []domain.Match) error { return nil }

// --- Mock CityRepository ---

type mockCityRepo struct {
	searchPrefixFn func(ctx context.Context, prefix string, limit int) ([]domain.City, error)
	calls          int
}

func (m *mockCityRepo) SearchPrefix(ctx context.Context, prefix string, limit int) ([]domain.City, error) {
	m.calls++
	if m.searchPrefixFn != nil {
		return m.searchPrefixFn(ctx, prefix, limit)
	}
	return nil, nil
}

func (m *mockCityRepo) UpsertBatch(ctx context.Context, cities []domain.City) error { return nil }

// --- Mock SavedMatchRepository ---

type mockSavedRepo struct {
	listFn           func(ctx context.Context, owner string) ([]domain.SavedMatch, error)
	addFn            func(ctx context.Context, owner string, matchID int64) error
	removeFn         func(ctx context.Context, owner string, matchID int64) error
	updateSectionsFn func(ctx context.Context, owner string, matchID int64, s domain.CompletedSections) error
	resetFn          func(ctx context.Context, owner string) error
}

func (m *mockSavedRepo) List(ctx context.Context, owner string) ([]domain.SavedMatch, error) {
	if m.listFn != nil {
		return m.listFn(ctx, owner)
	}
	return nil, nil
}

func (m *mockSavedRepo) Add(ctx context.Context, owner string, matchID int64) error {
	if m.addFn != nil {
		return m.addFn(ctx, owner, matchID)
	}
	return nil
}

func (m *mockSavedRepo) Remove(ctx context.Context, owner string, matchID int64) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, owner, matchID)
	}
	return nil
}

func (m *mockSavedRepo) UpdateSections(ctx context.Context, owner string, matchID int64, s domain.CompletedSections) error {
	if m.updateSectionsFn != nil {
		return m.updateSectionsFn(ctx, owner, matchID, s)
	}
	return nil
}

func (m *mockSavedRepo) Reset(ctx context.Context, owner string) error {
	if m.resetFn != nil {
		return m.resetFn(ctx, owner)
	}
	return nil
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttlSeconds
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func ptr[T any](v T) *T { return &v }
