package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/hoply/hoply/internal/adapters/nats"
	"github.com/hoply/hoply/internal/adapters/postgres"
	"github.com/hoply/hoply/internal/core/ports"
	"github.com/hoply/hoply/internal/importer"
	"github.com/hoply/hoply/internal/pkg/config"
	"github.com/hoply/hoply/internal/pkg/logging"
	"github.com/hoply/hoply/internal/workflows"
)

const usage = `usage:
  importer worker                     run the Temporal import worker
  importer run <feed> [cities.csv]    import a match feed and wait for the result
  importer cities <cities.csv>        load a cities file directly`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load("hoply-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)
	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatalf("importer needs storage.driver=%s, got %q", config.DriverPostgres, cfg.Storage.Driver)
	}

	ctx := context.Background()
	switch cmd := os.Args[1]; cmd {
	case "worker":
		err = runWorker(ctx, cfg)
	case "run":
		if len(os.Args) < 3 {
			log.Fatal(usage)
		}
		var cities string
		if len(os.Args) > 3 {
			cities = os.Args[3]
		}
		err = runImport(ctx, cfg, os.Args[2], cities)
	case "cities":
		if len(os.Args) < 3 {
			log.Fatal(usage)
		}
		err = loadCities(ctx, cfg, os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s\n", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func dialTemporal(cfg config.TemporalConfig) (client.Client, error) {
	return client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    slog.Default(),
	})
}

func runWorker(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer db.Close()

	var publisher ports.CatalogPublisher
	if cfg.NATS.Enabled {
		nc, err := natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName)
		if err != nil {
			return err
		}
		pub, err := natsadapter.NewPublisher(nc)
		if err != nil {
			nc.Close()
			return err
		}
		defer pub.Close()
		publisher = pub
	}

	c, err := dialTemporal(cfg.Temporal)
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.MatchImportWorkflow)
	w.RegisterActivity(&workflows.ImportActivities{
		Matches:   postgres.NewMatchRepo(db),
		Cities:    postgres.NewCityRepo(db),
		Publisher: publisher,
	})

	slog.Info("import worker started", "task_queue", cfg.Temporal.TaskQueue)
	return w.Run(worker.InterruptCh())
}

func runImport(ctx context.Context, cfg *config.Config, feed, cities string) error {
	in := workflows.ImportInput{}
	var err error
	if in.FeedPath, err = filepath.Abs(feed); err != nil {
		return err
	}
	if cities != "" {
		if in.CitiesPath, err = filepath.Abs(cities); err != nil {
			return err
		}
	}

	c, err := dialTemporal(cfg.Temporal)
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "match-import-" + uuid.NewString(),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.MatchImportWorkflow, in)
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	slog.Info("import started", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "feed", in.FeedPath)

	var res workflows.ImportResult
	if err := run.Get(ctx, &res); err != nil {
		return err
	}
	slog.Info("import finished",
		"version", res.Version, "matches", res.Matches, "skipped", res.Skipped, "cities", res.Cities)
	return nil
}

func loadCities(ctx context.Context, cfg *config.Config, path string) error {
	cities, rep, err := importer.LoadCitiesFile(path)
	if err != nil {
		return err
	}
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.NewCityRepo(db).UpsertBatch(ctx, cities); err != nil {
		return err
	}
	slog.Info("cities loaded", "file", path, "rows", rep.Rows, "skipped", rep.Skipped)
	return nil
}
