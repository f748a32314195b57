package ports

import (
	"context"
	"errors"

	"github.com/hoply/hoply/internal/core/domain"
)

// CatalogPublisher announces catalog changes to a message broker.
type CatalogPublisher interface {
	PublishCatalogUpdate(ctx context.Context, u *domain.CatalogUpdate) error
}

// CatalogSubscriber receives catalog changes from a message broker.
type CatalogSubscriber interface {
	SubscribeCatalogUpdates(ctx context.Context, handler func(ctx context.Context, u *domain.CatalogUpdate) error) error
}

// ErrCacheMiss is returned by CacheService.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// CacheService provides read-through caching. A ttlSeconds <= 0 stores the
// value without expiry.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
