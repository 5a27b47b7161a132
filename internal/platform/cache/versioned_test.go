package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type item struct {
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*Versioned, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "test:catalog", time.Minute, nil), mr
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	value := "first"
	loader := func(context.Context) (any, error) {
		calls++
		return []item{{Name: value}}, nil
	}

	var got []item
	if err := c.FetchJSON(ctx, &got, loader, "active"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 1 || got[0].Name != "first" {
		t.Fatalf("unexpected first load calls=%d got=%v", calls, got)
	}

	value = "second"
	got = nil
	if err := c.FetchJSON(ctx, &got, loader, "active"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 1 || got[0].Name != "first" {
		t.Fatalf("expected cached value, calls=%d got=%v", calls, got)
	}

	if err := c.Bump(ctx); err != nil {
		t.Fatalf("bump: %v", err)
	}
	got = nil
	if err := c.FetchJSON(ctx, &got, loader, "active"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 2 || got[0].Name != "second" {
		t.Fatalf("expected reload after bump, calls=%d got=%v", calls, got)
	}
}

func TestBuildKeyEmbedsVersion(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "active")
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	if key != "test:catalog:active:v1" {
		t.Fatalf("unexpected key %q", key)
	}
	if err := c.Bump(ctx); err != nil {
		t.Fatalf("bump: %v", err)
	}
	key, _ = c.BuildKey(ctx, "active")
	if key != "test:catalog:active:v2" {
		t.Fatalf("unexpected key after bump %q", key)
	}
}

func TestFetchJSONLoaderError(t *testing.T) {
	c, _ := newTestCache(t)
	boom := errors.New("boom")
	var got []item
	err := c.FetchJSON(context.Background(), &got, func(context.Context) (any, error) { return nil, boom }, "active")
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestFetchJSONFallsBackWhenRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var got []item
	err := c.FetchJSON(context.Background(), &got, func(context.Context) (any, error) {
		return []item{{Name: "direct"}}, nil
	}, "active")
	if err != nil {
		t.Fatalf("expected fallback to loader, got %v", err)
	}
	if len(got) != 1 || got[0].Name != "direct" {
		t.Fatalf("unexpected value %v", got)
	}
}

func TestNilCacheCallsLoader(t *testing.T) {
	var c *Versioned
	var got item
	if err := c.FetchJSON(context.Background(), &got, func(context.Context) (any, error) {
		return item{Name: "x"}, nil
	}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Name != "x" {
		t.Fatalf("unexpected %v", got)
	}
	if err := c.Bump(context.Background()); err != nil {
		t.Fatalf("bump on nil cache: %v", err)
	}
}

func TestFetchJSONCoalescesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	loader := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []item{{Name: "shared"}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got []item
			if err := c.FetchJSON(ctx, &got, loader, "active"); err != nil {
				t.Errorf("fetch: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected one loader call, got %d", n)
	}
}
