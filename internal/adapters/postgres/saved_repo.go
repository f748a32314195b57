package postgres

import (
	"context"
	"fmt"

	"github.com/hoply/hoply/internal/core/domain"
)

// SavedMatchRepo implements ports.SavedMatchRepository with pgx.
type SavedMatchRepo struct {
	db *DB
}

// NewSavedMatchRepo creates a new SavedMatchRepo.
func NewSavedMatchRepo(db *DB) *SavedMatchRepo {
	return &SavedMatchRepo{db: db}
}

// List returns the owner's saved matches in the order they were saved.
func (r *SavedMatchRepo) List(ctx context.Context, ownerID string) ([]domain.SavedMatch, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT m.id, m.league, m.sport, m.home_team, m.away_team, m.event_date, m.event_time,
		       m.stadium, m.latitude, m.longitude, m.date_string,
		       s.tickets, s.travel, s.accommodation, s.saved_at
		FROM saved_matches s
		JOIN matches m ON m.id = s.match_id
		WHERE s.owner_id = $1
		ORDER BY s.saved_at, s.match_id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query saved matches: %w", err)
	}
	defer rows.Close()

	saved := make([]domain.SavedMatch, 0)
	for rows.Next() {
		sm := domain.SavedMatch{OwnerID: ownerID}
		m := &sm.Match
		if err := rows.Scan(
			&m.ID, &m.League, &m.Sport, &m.HomeTeam, &m.AwayTeam,
			&m.EventDate, &m.EventTime, &m.Stadium,
			&m.Latitude, &m.Longitude, &m.DateString,
			&sm.Sections.Tickets, &sm.Sections.Travel, &sm.Sections.Accommodation,
			&sm.SavedAt,
		); err != nil {
			return nil, fmt.Errorf("scan saved match: %w", err)
		}
		saved = append(saved, sm)
	}
	return saved, rows.Err()
}

// Add saves the match; saving it twice keeps the original entry.
func (r *SavedMatchRepo) Add(ctx context.Context, ownerID string, matchID int64) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO saved_matches (owner_id, match_id)
		VALUES ($1, $2)
		ON CONFLICT (owner_id, match_id) DO NOTHING
	`, ownerID, matchID)
	return err
}

// Remove deletes the saved match together with its completed sections.
func (r *SavedMatchRepo) Remove(ctx context.Context, ownerID string, matchID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM saved_matches WHERE owner_id = $1 AND match_id = $2`, ownerID, matchID)
	return err
}

// UpdateSections replaces the completed sections of a saved match.
func (r *SavedMatchRepo) UpdateSections(ctx context.Context, ownerID string, matchID int64, s domain.CompletedSections) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE saved_matches
		SET tickets = $3, travel = $4, accommodation = $5
		WHERE owner_id = $1 AND match_id = $2
	`, ownerID, matchID, s.Tickets, s.Travel, s.Accommodation)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Reset removes every saved match of the owner.
func (r *SavedMatchRepo) Reset(ctx context.Context, ownerID string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM saved_matches WHERE owner_id = $1`, ownerID)
	return err
}
