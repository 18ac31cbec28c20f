package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newCounter(t *testing.T) (*Counter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCounter(client, "legacy"), mr
}

func TestCounter_IncrSetsWindowOnce(t *testing.T) {
	t.Parallel()
	c, mr := newCounter(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.Incr(ctx, "ai:polish:u1:2026-05-01", time.Hour)
		if err != nil {
			t.Fatalf("Incr err=%v", err)
		}
		if n != want {
			t.Fatalf("Incr()=%d, want %d", n, want)
		}
		mr.FastForward(10 * time.Minute)
	}
	if ttl := mr.TTL("legacy:ai:polish:u1:2026-05-01"); ttl != 30*time.Minute {
		t.Fatalf("ttl=%v, want 30m (window must not be extended)", ttl)
	}

	mr.FastForward(31 * time.Minute)
	n, err := c.Get(ctx, "ai:polish:u1:2026-05-01")
	if err != nil || n != 0 {
		t.Fatalf("Get after expiry=%d err=%v", n, err)
	}
}

func TestCounter_DecrNeverNegative(t *testing.T) {
	t.Parallel()
	c, mr := newCounter(t)
	ctx := context.Background()

	if err := c.Decr(ctx, "missing"); err != nil {
		t.Fatalf("Decr missing err=%v", err)
	}
	if mr.Exists("legacy:missing") {
		t.Fatalf("Decr must not create keys")
	}

	if _, err := c.Incr(ctx, "k", time.Hour); err != nil {
		t.Fatalf("Incr err=%v", err)
	}
	if err := c.Decr(ctx, "k"); err != nil {
		t.Fatalf("Decr err=%v", err)
	}
	if err := c.Decr(ctx, "k"); err != nil {
		t.Fatalf("Decr err=%v", err)
	}
	n, err := c.Get(ctx, "k")
	if err != nil || n != 0 {
		t.Fatalf("Get()=%d err=%v", n, err)
	}
	if ttl := mr.TTL("legacy:k"); ttl <= 0 {
		t.Fatalf("ttl lost after Decr: %v", ttl)
	}
}

func TestNewClient_NoAddress(t *testing.T) {
	t.Parallel()
	if _, err := NewClient(context.Background(), Options{Addrs: []string{" "}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewClient_Ping(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), Options{Addrs: []string{mr.Addr()}})
	if err != nil {
		t.Fatalf("NewClient err=%v", err)
	}
	_ = client.Close()
}
