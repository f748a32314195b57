package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/core/ports"
	"github.com/hoply/hoply/internal/importer"
)

// ErrTypeBadFeed marks feed errors that retrying cannot fix.
const ErrTypeBadFeed = "BadFeed"

// FeedSummary describes a parsed feed file.
type FeedSummary struct {
	Path    string
	Rows    int
	Skipped int
}

// PublishInput is what PublishCatalogUpdate announces.
type PublishInput struct {
	Version    string
	Source     string
	Matches    int
	ImportedAt time.Time
}

// ImportActivities holds the activity implementations of the import workflow.
// Publisher may be nil, in which case nothing is announced.
type ImportActivities struct {
	Matches   ports.MatchRepository
	Cities    ports.CityRepository
	Publisher ports.CatalogPublisher
}

// LoadFeed parses the match feed and reports how many rows are usable.
func (a *ImportActivities) LoadFeed(ctx context.Context, path string) (FeedSummary, error) {
	_, rep, err := importer.LoadMatchesFile(path)
	if err != nil {
		return FeedSummary{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("load feed %s", path), ErrTypeBadFeed, err)
	}
	return FeedSummary{Path: path, Rows: rep.Rows, Skipped: rep.Skipped}, nil
}

// UpsertMatches writes the feed to the match repository and returns the
// number of matches written.
func (a *ImportActivities) UpsertMatches(ctx context.Context, path string) (int, error) {
	matches, rep, err := importer.LoadMatchesFile(path)
	if err != nil {
		return 0, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("load feed %s", path), ErrTypeBadFeed, err)
	}
	if err := a.Matches.UpsertBatch(ctx, matches); err != nil {
		return 0, fmt.Errorf("upsert matches: %w", err)
	}
	slog.InfoContext(ctx, "matches imported", "file", path, "rows", rep.Rows, "skipped", rep.Skipped)
	return len(matches), nil
}

// UpsertCities loads a cities CSV into the city repository.
func (a *ImportActivities) UpsertCities(ctx context.Context, path string) (int, error) {
	cities, rep, err := importer.LoadCitiesFile(path)
	if err != nil {
		return 0, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("load cities %s", path), ErrTypeBadFeed, err)
	}
	if err := a.Cities.UpsertBatch(ctx, cities); err != nil {
		return 0, fmt.Errorf("upsert cities: %w", err)
	}
	slog.InfoContext(ctx, "cities imported", "file", path, "rows", rep.Rows, "skipped", rep.Skipped)
	return len(cities), nil
}

// PublishCatalogUpdate tells API instances the catalog changed.
func (a *ImportActivities) PublishCatalogUpdate(ctx context.Context, in PublishInput) error {
	if a.Publisher == nil {
		slog.WarnContext(ctx, "no catalog publisher configured; API caches expire on their own", "version", in.Version)
		return nil
	}
	return a.Publisher.PublishCatalogUpdate(ctx, &domain.CatalogUpdate{
		Version:    in.Version,
		Source:     in.Source,
		Matches:    in.Matches,
		ImportedAt: in.ImportedAt,
	})
}
