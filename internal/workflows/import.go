package workflows

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ImportInput is the input of MatchImportWorkflow.
type ImportInput struct {
	FeedPath   string
	CitiesPath string // optional
}

// ImportResult is returned when the import finished.
type ImportResult struct {
	Version string
	Matches int
	Skipped int
	Cities  int
}

// MatchImportWorkflow loads a match feed, writes it to the catalog and
// announces the new catalog version so API caches rotate. A feed without a
// single valid row fails the workflow before anything is written.
func MatchImportWorkflow(ctx workflow.Context, in ImportInput) (*ImportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting match import", "feed", in.FeedPath)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeBadFeed},
		},
	})

	var summary FeedSummary
	if err := workflow.ExecuteActivity(ctx, "LoadFeed", in.FeedPath).Get(ctx, &summary); err != nil {
		return nil, err
	}
	if summary.Rows == 0 {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("feed %s has no valid rows (%d skipped)", in.FeedPath, summary.Skipped), ErrTypeBadFeed, nil)
	}

	res := &ImportResult{Skipped: summary.Skipped}
	if err := workflow.ExecuteActivity(ctx, "UpsertMatches", in.FeedPath).Get(ctx, &res.Matches); err != nil {
		return nil, err
	}
	if in.CitiesPath != "" {
		if err := workflow.ExecuteActivity(ctx, "UpsertCities", in.CitiesPath).Get(ctx, &res.Cities); err != nil {
			return nil, err
		}
	}

	if err := workflow.SideEffect(ctx, func(workflow.Context) interface{} {
		return uuid.NewString()
	}).Get(&res.Version); err != nil {
		return nil, err
	}

	pub := PublishInput{
		Version:    res.Version,
		Source:     in.FeedPath,
		Matches:    res.Matches,
		ImportedAt: workflow.Now(ctx).UTC(),
	}
	if err := workflow.ExecuteActivity(ctx, "PublishCatalogUpdate", pub).Get(ctx, nil); err != nil {
		// The catalog is already written; caches expire on their own TTL.
		logger.Warn("catalog update not published", "version", res.Version, "error", err)
	}

	logger.Info("Match import finished", "version", res.Version, "matches", res.Matches, "skipped", res.Skipped)
	return res, nil
}
