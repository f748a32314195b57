package http

import (
	"context"

	"github.com/hoply/hoply/internal/core/usecases"
	"github.com/hoply/hoply/internal/pkg/config"
)

// Pinger is anything /v1/ready can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Matches *usecases.MatchService
	Cities  *usecases.CityService
	Saved   *usecases.SavedMatchService
	Hub     *Hub
	Search  config.SearchConfig
	Version string

	// Checks are pinged by /v1/ready, keyed by dependency name. A nil
	// Pinger is reported as "not configured" without failing readiness.
	Checks map[string]Pinger
}
