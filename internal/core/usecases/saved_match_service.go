package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/core/ports"
)

// SavedMatchService manages an owner's saved matches and checkout progress.
type SavedMatchService struct {
	saved   ports.SavedMatchRepository
	matches ports.MatchRepository
}

// NewSavedMatchService creates a new SavedMatchService.
func NewSavedMatchService(saved ports.SavedMatchRepository, matches ports.MatchRepository) *SavedMatchService {
	return &SavedMatchService{saved: saved, matches: matches}
}

// List returns the owner's saved matches in the order they were saved.
func (s *SavedMatchService) List(ctx context.Context, ownerID string) ([]domain.SavedMatch, error) {
	owner, err := normalizeOwner(ownerID)
	if err != nil {
		return nil, err
	}
	saved, err := s.saved.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list saved matches: %w", err)
	}
	if saved == nil {
		saved = []domain.SavedMatch{}
	}
	return saved, nil
}

// Add saves a match. Saving the same match twice keeps a single entry.
func (s *SavedMatchService) Add(ctx context.Context, ownerID string, matchID int64) error {
	owner, err := normalizeOwner(ownerID)
	if err != nil {
		return err
	}
	if _, err := s.matches.GetByID(ctx, matchID); err != nil {
		return fmt.Errorf("match %d: %w", matchID, err)
	}
	if err := s.saved.Add(ctx, owner, matchID); err != nil {
		return fmt.Errorf("save match %d: %w", matchID, err)
	}
	return nil
}

// Remove drops a saved match together with its checkout progress.
func (s *SavedMatchService) Remove(ctx context.Context, ownerID string, matchID int64) error {
	owner, err := normalizeOwner(ownerID)
	if err != nil {
		return err
	}
	return s.saved.Remove(ctx, owner, matchID)
}

// UpdateSections replaces the checkout progress of a saved match.
func (s *SavedMatchService) UpdateSections(ctx context.Context, ownerID string, matchID int64, sections domain.CompletedSections) error {
	owner, err := normalizeOwner(ownerID)
	if err != nil {
		return err
	}
	return s.saved.UpdateSections(ctx, owner, matchID, sections)
}

// Reset removes every saved match of the owner.
func (s *SavedMatchService) Reset(ctx context.Context, ownerID string) error {
	owner, err := normalizeOwner(ownerID)
	if err != nil {
		return err
	}
	return s.saved.Reset(ctx, owner)
}

func normalizeOwner(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidOwner, id)
	}
	return u.String(), nil
}
