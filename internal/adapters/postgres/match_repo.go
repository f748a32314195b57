package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hoply/hoply/internal/core/domain"
)

const matchColumns = `id, league, sport, home_team, away_team, event_date, event_time,
		       stadium, latitude, longitude, date_string`

// MatchRepo implements ports.MatchRepository with pgx.
type MatchRepo struct {
	db *DB
}

// NewMatchRepo creates a new MatchRepo.
func NewMatchRepo(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// ListCandidates pushes sport, dates and the bounding box down to SQL.
// The result is not limited: the exact distance test still has to run.
func (r *MatchRepo) ListCandidates(ctx context.Context, f domain.CandidateFilter) ([]domain.Match, error) {
	where, args := candidateWhere(f)

	q := `SELECT ` + matchColumns + ` FROM matches`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY event_date NULLS FIRST, event_time NULLS FIRST, id"

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]domain.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// candidateWhere builds the WHERE predicates and their positional args.
func candidateWhere(f domain.CandidateFilter) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Sport != "" {
		where = append(where, "sport = "+arg(f.Sport))
	}
	if f.DateFrom != nil {
		where = append(where, "event_date >= "+arg(f.DateFrom.UTC().Format("2006-01-02"))+"::date")
	}
	if f.DateTo != nil {
		where = append(where, "event_date <= "+arg(f.DateTo.UTC().Format("2006-01-02"))+"::date")
	}
	if b := f.Bounds; b != nil {
		where = append(where,
			"latitude IS NOT NULL", "longitude IS NOT NULL",
			fmt.Sprintf("latitude BETWEEN %s AND %s", arg(b.MinLat), arg(b.MaxLat)))
		switch {
		case b.WrapsLng:
			where = append(where, fmt.Sprintf("(longitude >= %s OR longitude <= %s)", arg(b.MinLng), arg(b.MaxLng)))
		case b.MinLng > -180 || b.MaxLng < 180:
			where = append(where, fmt.Sprintf("longitude BETWEEN %s AND %s", arg(b.MinLng), arg(b.MaxLng)))
		}
	}
	return where, args
}

// GetByID returns a match by id.
func (r *MatchRepo) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// UpsertBatch inserts or updates matches using pgx.Batch, batchSize rows
// per round trip.
func (r *MatchRepo) UpsertBatch(ctx context.Context, matches []domain.Match) error {
	for start := 0; start < len(matches); start += batchSize {
		end := min(start+batchSize, len(matches))
		chunk := matches[start:end]

		batch := &pgx.Batch{}
		for _, m := range chunk {
			batch.Queue(`
				INSERT INTO matches (id, league, sport, home_team, away_team, event_date, event_time,
				                     stadium, latitude, longitude, date_string)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				ON CONFLICT (id) DO UPDATE
				SET league = EXCLUDED.league, sport = EXCLUDED.sport,
				    home_team = EXCLUDED.home_team, away_team = EXCLUDED.away_team,
				    event_date = EXCLUDED.event_date, event_time = EXCLUDED.event_time,
				    stadium = EXCLUDED.stadium, latitude = EXCLUDED.latitude,
				    longitude = EXCLUDED.longitude, date_string = EXCLUDED.date_string
			`, m.ID, m.League, m.Sport, m.HomeTeam, m.AwayTeam, m.EventDate, m.EventTime,
				m.Stadium, m.Latitude, m.Longitude, m.DateString)
		}

		if err := execBatch(ctx, r.db, batch, len(chunk)); err != nil {
			return fmt.Errorf("upsert matches %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func execBatch(ctx context.Context, db *DB, batch *pgx.Batch, n int) error {
	br := db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

func scanMatch(row pgx.Row) (domain.Match, error) {
	var m domain.Match
	err := row.Scan(
		&m.ID, &m.League, &m.Sport, &m.HomeTeam, &m.AwayTeam,
		&m.EventDate, &m.EventTime, &m.Stadium,
		&m.Latitude, &m.Longitude, &m.DateString,
	)
	if err != nil {
		return m, err
	}
	if m.EventDate != nil {
		d := m.EventDate.UTC()
		m.EventDate = &d
	}
	if m.EventTime != nil {
		t := m.EventTime.UTC()
		m.EventTime = &t
	}
	return m, nil
}
