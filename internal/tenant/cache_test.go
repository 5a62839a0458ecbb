package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"

	"github.com/yanizio/frontdoor/internal/store"
)

func TestMemoryCacheThreeValued(t *testing.T) {
	mock := clock.NewMock()
	c := NewMemoryCache(time.Minute, 0, mock)
	ctx := context.Background()

	if _, found := c.Get(ctx, "a.test"); found {
		t.Fatalf("empty cache reported a hit")
	}
	c.Set(ctx, "a.test", nil)
	if b, found := c.Get(ctx, "a.test"); !found || b != nil {
		t.Fatalf("negative entry = (%v, %v)", b, found)
	}
	c.Set(ctx, "b.test", &Bundle{Host: "b.test"})
	if b, found := c.Get(ctx, "b.test"); !found || b == nil || b.Host != "b.test" {
		t.Fatalf("positive entry = (%v, %v)", b, found)
	}

	mock.Add(time.Minute)
	if _, found := c.Get(ctx, "a.test"); found {
		t.Fatalf("entry readable at its deadline")
	}
}

func TestMemoryCacheBound(t *testing.T) {
	c := NewMemoryCache(time.Minute, 2, clock.NewMock())
	ctx := context.Background()
	c.Set(ctx, "a", nil)
	c.Set(ctx, "b", nil)
	c.Set(ctx, "c", nil)
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, found := c.Get(ctx, "a"); found {
		t.Fatalf("oldest entry survived the bound")
	}
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, "frontdoor:tenant:", time.Minute, nil), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	in := &Bundle{
		Host:   "1dun.co",
		Domain: store.Record{"id": "d1", "hostname": "1dun.co"},
		Site:   store.Record{"id": "s1", "name": "1dun"},
	}
	c.Set(ctx, "1dun.co", in)
	c.Set(ctx, "nobody.test", nil)

	if raw, _ := mr.Get("frontdoor:tenant:nobody.test"); raw != "null" {
		t.Fatalf("negative stored as %q, want null", raw)
	}
	if ttl := mr.TTL("frontdoor:tenant:1dun.co"); ttl != time.Minute {
		t.Fatalf("TTL = %v, want 1m", ttl)
	}

	out, found := c.Get(ctx, "1dun.co")
	if !found || out.SiteID() != "s1" || out.Site.String("name") != "1dun" {
		t.Fatalf("positive = (%+v, %v)", out, found)
	}
	if b, found := c.Get(ctx, "nobody.test"); !found || b != nil {
		t.Fatalf("negative = (%v, %v)", b, found)
	}

	mr.FastForward(61 * time.Second)
	if _, found := c.Get(ctx, "1dun.co"); found {
		t.Fatalf("entry survived its TTL")
	}
}

func TestRedisCacheDegradesToMiss(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	_ = mr.Set("frontdoor:tenant:garbled.test", "{not json")
	if _, found := c.Get(ctx, "garbled.test"); found {
		t.Fatalf("unreadable entry reported as hit")
	}

	mr.Close()
	c.Set(ctx, "down.test", nil)
	if _, found := c.Get(ctx, "down.test"); found {
		t.Fatalf("unreachable redis reported a hit")
	}
}
