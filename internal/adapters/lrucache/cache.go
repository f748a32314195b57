// Package lrucache is an in-process ports.CacheService used when no Valkey
// server is configured.
package lrucache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/hoply/hoply/internal/core/ports"
)

type entry struct {
	value   []byte
	expires time.Time // zero means never
}

// Cache is a size-bounded cache with per-entry expiry.
type Cache struct {
	lru *lru.Cache
	now func() time.Time
}

// New creates a cache holding at most size entries.
func New(size int) (*Cache, error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("lru: %w", err)
	}
	return &Cache{lru: l, now: time.Now}, nil
}

// Get returns the value for key, or ports.ErrCacheMiss when it is absent
// or expired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	e := v.(entry)
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.lru.Remove(key)
		return nil, ports.ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a copy of value.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttlSeconds > 0 {
		e.expires = c.now().Add(time.Duration(ttlSeconds) * time.Second)
	}
	c.lru.Add(key, e)
	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Len reports the number of entries, expired ones included.
func (c *Cache) Len() int {
	return c.lru.Len()
}
