//go:build integration

package valkey

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/hoply/hoply/internal/core/ports"
)

var _ ports.CacheService = (*Cache)(nil)

func TestCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("HOPLY_VALKEY_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := New(addr, "hoply-test:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte{0x00, 0xff, 'x'}, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "\x00\xffx" {
		t.Fatalf("get = %q, %v", got, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Fatalf("after delete err = %v, want ErrCacheMiss", err)
	}
}
