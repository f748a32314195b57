package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/hoply/hoply/internal/adapters/memory"
	"github.com/hoply/hoply/internal/core/domain"
)

type recordingPublisher struct {
	mu      sync.Mutex
	updates []domain.CatalogUpdate
	err     error
}

func (p *recordingPublisher) PublishCatalogUpdate(_ context.Context, u *domain.CatalogUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.updates = append(p.updates, *u)
	return nil
}

func newEnv(t *testing.T, pub *recordingPublisher) (*testsuite.TestWorkflowEnvironment, *memory.Store) {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	store, err := memory.New()
	require.NoError(t, err)
	env.RegisterActivity(&ImportActivities{
		Matches:   store.Matches(),
		Cities:    store.Cities(),
		Publisher: pub,
	})
	return env, store
}

func TestMatchImportWorkflow(t *testing.T) {
	pub := &recordingPublisher{}
	env, store := newEnv(t, pub)

	env.ExecuteWorkflow(MatchImportWorkflow, ImportInput{
		FeedPath:   "../importer/testdata/matches.json",
		CitiesPath: "../importer/testdata/cities.csv",
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res ImportResult
	require.NoError(t, env.GetWorkflowResult(&res))
	assert.Equal(t, 3, res.Matches)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.Cities)
	assert.NotEmpty(t, res.Version)

	all, err := store.Matches().ListCandidates(context.Background(), domain.CandidateFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.Len(t, pub.updates, 1)
	assert.Equal(t, res.Version, pub.updates[0].Version)
	assert.Equal(t, 3, pub.updates[0].Matches)
	assert.Equal(t, "../importer/testdata/matches.json", pub.updates[0].Source)
}

func TestMatchImportWorkflow_EmptyFeed(t *testing.T) {
	pub := &recordingPublisher{}
	env, _ := newEnv(t, pub)

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	env.ExecuteWorkflow(MatchImportWorkflow, ImportInput{FeedPath: path})
	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
	assert.Empty(t, pub.updates)
}

func TestMatchImportWorkflow_MissingFeed(t *testing.T) {
	env, _ := newEnv(t, &recordingPublisher{})

	env.ExecuteWorkflow(MatchImportWorkflow, ImportInput{FeedPath: "does/not/exist.json"})
	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
}

func TestMatchImportWorkflow_PublishFailureKeepsImport(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats: no responders")}
	env, store := newEnv(t, pub)

	env.ExecuteWorkflow(MatchImportWorkflow, ImportInput{FeedPath: "../importer/testdata/matches.json"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	all, err := store.Matches().ListCandidates(context.Background(), domain.CandidateFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
