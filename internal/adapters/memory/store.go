// Package memory is an in-process storage driver backed by go-memdb. It
// implements the same ports as the postgres adapter.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/core/search"
	"github.com/hoply/hoply/internal/pkg/geospatial"
)

const (
	tableMatches = "matches"
	tableCities  = "cities"
	tableSaved   = "saved"
)

// savedRow is one saved match. seq keeps save order stable when two saves
// share a timestamp.
type savedRow struct {
	OwnerID  string
	MatchID  int64
	Sections domain.CompletedSections
	SavedAt  time.Time
	Seq      uint64
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableMatches: {
				Name: tableMatches,
				Indexes: map[string]*memdb.IndexSchema{
					"id":    {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
					"sport": {Name: "sport", AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "Sport"}},
				},
			},
			tableCities: {
				Name: tableCities,
				Indexes: map[string]*memdb.IndexSchema{
					"id":    {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
					"name":  {Name: "name", AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "Name"}},
					"ascii": {Name: "ascii", AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "ASCIIName"}},
				},
			},
			tableSaved: {
				Name: tableSaved,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "OwnerID"},
							&memdb.IntFieldIndex{Field: "MatchID"},
						},
					}},
					"owner": {Name: "owner", Indexer: &memdb.StringFieldIndex{Field: "OwnerID"}},
				},
			},
		},
	}
}

// Store holds matches, cities and saved matches in memory.
type Store struct {
	db  *memdb.MemDB
	seq atomic.Uint64
	now func() time.Time
}

// New creates an empty store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("memdb: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Matches returns the store as a ports.MatchRepository.
func (s *Store) Matches() *MatchRepo { return &MatchRepo{s} }

// Cities returns the store as a ports.CityRepository.
func (s *Store) Cities() *CityRepo { return &CityRepo{s} }

// Saved returns the store as a ports.SavedMatchRepository.
func (s *Store) Saved() *SavedMatchRepo { return &SavedMatchRepo{s} }

// MatchRepo implements ports.MatchRepository.
type MatchRepo struct{ s *Store }

// ListCandidates returns every match of the requested sport (or all matches).
// Dates and the bounding box are left to the search filter.
func (r *MatchRepo) ListCandidates(ctx context.Context, f domain.CandidateFilter) ([]domain.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txn := r.s.db.Txn(false)
	defer txn.Abort()

	var (
		it  memdb.ResultIterator
		err error
	)
	if f.Sport != "" {
		it, err = txn.Get(tableMatches, "sport", f.Sport)
	} else {
		it, err = txn.Get(tableMatches, "id")
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.Match, 0)
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, *obj.(*domain.Match))
	}
	return out, nil
}

// GetByID returns a match by id.
func (r *MatchRepo) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	txn := r.s.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(tableMatches, "id", id)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, domain.ErrNotFound
	}
	m := *obj.(*domain.Match)
	return &m, nil
}

// UpsertBatch inserts or replaces matches in one transaction.
func (r *MatchRepo) UpsertBatch(ctx context.Context, matches []domain.Match) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	for i := range matches {
		m := matches[i]
		if !coordinatesInRange(m.Latitude, m.Longitude) {
			return fmt.Errorf("insert match %d: coordinates out of range", m.ID)
		}
		if err := txn.Insert(tableMatches, &m); err != nil {
			return fmt.Errorf("insert match %d: %w", m.ID, err)
		}
	}
	txn.Commit()
	return nil
}

// coordinatesInRange mirrors the CHECK constraints on matches.latitude and
// matches.longitude. Missing values pass.
func coordinatesInRange(lat, lon *float64) bool {
	if lat != nil && !geospatial.ValidPoint(*lat, 0) {
		return false
	}
	return lon == nil || geospatial.ValidPoint(0, *lon)
}

// CityRepo implements ports.CityRepository.
type CityRepo struct{ s *Store }

// SearchPrefix uses the name and ASCII name prefix indexes.
func (r *CityRepo) SearchPrefix(ctx context.Context, prefix string, limit int) ([]domain.City, error) {
	if !search.CityPrefixValid(prefix, search.MinCityPrefix) || limit <= 0 {
		return []domain.City{}, nil
	}
	txn := r.s.db.Txn(false)
	defer txn.Abort()

	seen := map[int64]bool{}
	var found []domain.City
	for _, index := range []string{"name_prefix", "ascii_prefix"} {
		it, err := txn.Get(tableCities, index, prefix)
		if err != nil {
			return nil, err
		}
		for obj := it.Next(); obj != nil; obj = it.Next() {
			c := obj.(*domain.City)
			if !seen[c.ID] {
				seen[c.ID] = true
				found = append(found, *c)
			}
		}
	}
	return search.Cities(found, prefix, limit), nil
}

// UpsertBatch inserts or replaces cities in one transaction.
func (r *CityRepo) UpsertBatch(ctx context.Context, cities []domain.City) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	for i := range cities {
		c := cities[i]
		if !geospatial.ValidPoint(c.Latitude, c.Longitude) {
			return fmt.Errorf("insert city %d: coordinates out of range", c.ID)
		}
		if err := txn.Insert(tableCities, &c); err != nil {
			return fmt.Errorf("insert city %d: %w", c.ID, err)
		}
	}
	txn.Commit()
	return nil
}

// SavedMatchRepo implements ports.SavedMatchRepository.
type SavedMatchRepo struct{ s *Store }

// List returns the owner's saved matches in save order. Rows whose match
// has since disappeared from the catalog are left out.
func (r *SavedMatchRepo) List(ctx context.Context, ownerID string) ([]domain.SavedMatch, error) {
	txn := r.s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableSaved, "owner", ownerID)
	if err != nil {
		return nil, err
	}
	var rows []*savedRow
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rows = append(rows, obj.(*savedRow))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seq < rows[j].Seq })

	out := make([]domain.SavedMatch, 0, len(rows))
	for _, row := range rows {
		obj, err := txn.First(tableMatches, "id", row.MatchID)
		if err != nil {
			return nil, err
		}
		if obj == nil {
			continue
		}
		out = append(out, domain.SavedMatch{
			OwnerID:  row.OwnerID,
			Match:    *obj.(*domain.Match),
			Sections: row.Sections,
			SavedAt:  row.SavedAt,
		})
	}
	return out, nil
}

// Add saves the match; saving it twice keeps the original entry.
func (r *SavedMatchRepo) Add(ctx context.Context, ownerID string, matchID int64) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableSaved, "id", ownerID, matchID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	row := &savedRow{OwnerID: ownerID, MatchID: matchID, SavedAt: r.s.now().UTC(), Seq: r.s.seq.Add(1)}
	if err := txn.Insert(tableSaved, row); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Remove deletes the saved match and its sections.
func (r *SavedMatchRepo) Remove(ctx context.Context, ownerID string, matchID int64) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(tableSaved, "id", ownerID, matchID); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// UpdateSections replaces the sections of a saved match.
func (r *SavedMatchRepo) UpdateSections(ctx context.Context, ownerID string, matchID int64, sections domain.CompletedSections) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(tableSaved, "id", ownerID, matchID)
	if err != nil {
		return err
	}
	if obj == nil {
		return domain.ErrNotFound
	}
	// memdb objects are immutable once inserted.
	row := *obj.(*savedRow)
	row.Sections = sections
	if err := txn.Insert(tableSaved, &row); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Reset removes every saved match of the owner.
func (r *SavedMatchRepo) Reset(ctx context.Context, ownerID string) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(tableSaved, "owner", ownerID); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
