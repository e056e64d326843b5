package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/tracker000/gridtrack/internal/cache"
)

func TestMemoryRoundTrip(t *testing.T) {
	c := cache.NewMemory(time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatal("hit on an empty cache")
	}

	c.Set(ctx, "k", []byte("v"))

	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("miss right after Set")
	}

	if string(got) != "v" {
		t.Fatalf("got %q, want v", got)
	}

	c.Delete(ctx, "k")

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("hit after Delete")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	c := cache.NewMemory(10 * time.Millisecond)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"))

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("entry survived its TTL")
	}
}

func TestMemoryDeleteUnknownKeyIsNoop(t *testing.T) {
	c := cache.NewMemory(time.Minute)

	// must not panic or error
	c.Delete(context.Background(), "never-set")
}
