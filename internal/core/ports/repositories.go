package ports

import (
	"context"

	"github.com/hoply/hoply/internal/core/domain"
)

// MatchRepository reads and writes the match catalog.
type MatchRepository interface {
	// ListCandidates returns every match that may satisfy f. Implementations
	// may return more than f selects, never less.
	ListCandidates(ctx context.Context, f domain.CandidateFilter) ([]domain.Match, error)
	GetByID(ctx context.Context, id int64) (*domain.Match, error)
	UpsertBatch(ctx context.Context, matches []domain.Match) error
}

// CityRepository looks up cities by name prefix.
type CityRepository interface {
	SearchPrefix(ctx context.Context, prefix string, limit int) ([]domain.City, error)
	UpsertBatch(ctx context.Context, cities []domain.City) error
}

// SavedMatchRepository persists an owner's saved matches and checkout progress.
type SavedMatchRepository interface {
	List(ctx context.Context, ownerID string) ([]domain.SavedMatch, error)
	// Add saves the match for owner; saving it twice is a no-op.
	Add(ctx context.Context, ownerID string, matchID int64) error
	// Remove deletes the saved match and its sections. Missing rows are not an error.
	Remove(ctx context.Context, ownerID string, matchID int64) error
	// UpdateSections returns domain.ErrNotFound when the match is not saved.
	UpdateSections(ctx context.Context, ownerID string, matchID int64, s domain.CompletedSections) error
	Reset(ctx context.Context, ownerID string) error
}
