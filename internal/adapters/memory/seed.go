package memory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hoply/hoply/internal/importer"
)

// Seed loads the match feed and cities file into the store. Empty paths are
// skipped.
func (s *Store) Seed(ctx context.Context, matchesFile, citiesFile string) error {
	if matchesFile != "" {
		matches, rep, err := importer.LoadMatchesFile(matchesFile)
		if err != nil {
			return fmt.Errorf("seed matches: %w", err)
		}
		if err := s.Matches().UpsertBatch(ctx, matches); err != nil {
			return fmt.Errorf("seed matches: %w", err)
		}
		slog.Info("memory store seeded", "file", matchesFile, "matches", rep.Rows, "skipped", rep.Skipped)
	}

	if citiesFile != "" {
		cities, rep, err := importer.LoadCitiesFile(citiesFile)
		if err != nil {
			return fmt.Errorf("seed cities: %w", err)
		}
		if err := s.Cities().UpsertBatch(ctx, cities); err != nil {
			return fmt.Errorf("seed cities: %w", err)
		}
		slog.Info("memory store seeded", "file", citiesFile, "cities", rep.Rows, "skipped", rep.Skipped)
	}
	return nil
}
