package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/hoply/hoply/internal/adapters/http"
	"github.com/hoply/hoply/internal/adapters/lrucache"
	"github.com/hoply/hoply/internal/adapters/memory"
	natsadapter "github.com/hoply/hoply/internal/adapters/nats"
	"github.com/hoply/hoply/internal/adapters/postgres"
	"github.com/hoply/hoply/internal/adapters/valkey"
	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/core/ports"
	"github.com/hoply/hoply/internal/core/usecases"
	"github.com/hoply/hoply/internal/pkg/config"
	"github.com/hoply/hoply/internal/pkg/logging"
	"github.com/hoply/hoply/internal/pkg/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const localCacheSize = 4096

type storage struct {
	matches ports.MatchRepository
	cities  ports.CityRepository
	saved   ports.SavedMatchRepository
	db      *postgres.DB
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store, err := memory.New()
		if err != nil {
			return nil, err
		}
		if err := store.Seed(ctx, cfg.Storage.MatchesFile, cfg.Storage.CitiesFile); err != nil {
			return nil, err
		}
		return &storage{matches: store.Matches(), cities: store.Cities(), saved: store.Saved()}, nil
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		return &storage{
			matches: postgres.NewMatchRepo(db),
			cities:  postgres.NewCityRepo(db),
			saved:   postgres.NewSavedMatchRepo(db),
			db:      db,
		}, nil
	}
}

func openCache(ctx context.Context, cfg config.ValkeyConfig) (ports.CacheService, func()) {
	if cfg.Enabled {
		c, err := valkey.New(cfg.Addr, "hoply:")
		if err == nil {
			if err = c.Ping(ctx); err == nil {
				return c, c.Close
			}
			c.Close()
		}
		slog.Warn("valkey unavailable, using in-process cache", "addr", cfg.Addr, "error", err)
	}
	c, err := lrucache.New(localCacheSize)
	if err != nil {
		slog.Warn("in-process cache disabled", "error", err)
		return nil, func() {}
	}
	return c, func() {}
}

func main() {
	cfg, err := config.Load("hoply-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}
	if err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Telemetry.SentryDSN,
		Environment: cfg.Telemetry.Environment,
		Release:     version,
		ServerName:  cfg.Telemetry.ServiceName,
	}); err != nil {
		slog.Warn("sentry init failed", "error", err)
	}
	defer telemetry.FlushSentry(2 * time.Second)

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	checks := map[string]http.Pinger{}
	if store.db != nil {
		defer store.db.Close()
		go store.db.ReportPoolStats(ctx, 15*time.Second)
		checks["database"] = store.db
	}

	cache, closeCache := openCache(ctx, cfg.Valkey)
	defer closeCache()
	if p, ok := cache.(http.Pinger); ok {
		checks["cache"] = p
	}

	matchSvc := usecases.NewMatchService(store.matches, cache).WithQueryTTL(cfg.Valkey.TTL)
	matchSvc.LoadCatalogVersion(ctx)
	citySvc := usecases.NewCityService(store.cities, cache).WithLimits(cfg.Search.CityMinPrefix, cfg.Search.CityLimit)
	savedSvc := usecases.NewSavedMatchService(store.saved, store.matches)
	hub := http.NewHub()

	if cfg.NATS.Enabled {
		nc, err := natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName)
		if err != nil {
			slog.Warn("nats unavailable, catalog updates disabled", "error", err)
		} else {
			defer nc.Drain()
			sub, err := natsadapter.NewSubscriber(nc)
			if err == nil {
				err = sub.SubscribeCatalogUpdates(ctx, func(ctx context.Context, u *domain.CatalogUpdate) error {
					if err := matchSvc.HandleCatalogUpdate(ctx, u); err != nil {
						return err
					}
					return hub.HandleCatalogUpdate(ctx, u)
				})
			}
			if err != nil {
				slog.Warn("catalog subscription failed", "error", err)
			} else {
				defer sub.Close()
				checks["nats"] = sub
			}
		}
	}

	deps := &http.Dependencies{
		Matches: matchSvc,
		Cities:  citySvc,
		Saved:   savedSvc,
		Hub:     hub,
		Search:  cfg.Search,
		Version: version,
		Checks:  checks,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Hoply API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps, http.RouterConfig{
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", cfg.Storage.Driver, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
