package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hoply/hoply/internal/core/domain"
)

// CityRepo implements ports.CityRepository with pgx.
type CityRepo struct {
	db *DB
}

// NewCityRepo creates a new CityRepo.
func NewCityRepo(db *DB) *CityRepo {
	return &CityRepo{db: db}
}

// SearchPrefix returns the most populous cities whose name or ASCII name
// starts with prefix. ^@ is case-sensitive and treats % and _ literally.
func (r *CityRepo) SearchPrefix(ctx context.Context, prefix string, limit int) ([]domain.City, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, ascii_name, COALESCE(country_code, ''), latitude, longitude, population
		FROM cities
		WHERE name ^@ $1 OR ascii_name ^@ $1
		ORDER BY population DESC, name, id
		LIMIT $2
	`, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	cities := make([]domain.City, 0, limit)
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(
			&c.ID, &c.Name, &c.ASCIIName, &c.CountryCode,
			&c.Latitude, &c.Longitude, &c.Population,
		); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

// UpsertBatch inserts or updates cities using pgx.Batch.
func (r *CityRepo) UpsertBatch(ctx context.Context, cities []domain.City) error {
	for start := 0; start < len(cities); start += batchSize {
		end := min(start+batchSize, len(cities))
		chunk := cities[start:end]

		batch := &pgx.Batch{}
		for _, c := range chunk {
			batch.Queue(`
				INSERT INTO cities (id, name, ascii_name, country_code, latitude, longitude, population)
				VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
				ON CONFLICT (id) DO UPDATE
				SET name = EXCLUDED.name, ascii_name = EXCLUDED.ascii_name,
				    country_code = EXCLUDED.country_code, latitude = EXCLUDED.latitude,
				    longitude = EXCLUDED.longitude, population = EXCLUDED.population
			`, c.ID, c.Name, c.ASCIIName, c.CountryCode, c.Latitude, c.Longitude, c.Population)
		}

		if err := execBatch(ctx, r.db, batch, len(chunk)); err != nil {
			return fmt.Errorf("upsert cities %d-%d: %w", start, end, err)
		}
	}
	return nil
}
