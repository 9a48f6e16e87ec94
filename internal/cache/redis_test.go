package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisClient struct {
	mu        sync.Mutex
	now       time.Time
	values    map[string]string
	expiresAt map[string]time.Time
	failing   bool
}

func newFakeRedisClient(now time.Time) *fakeRedisClient {
	return &fakeRedisClient{
		now:       now,
		values:    make(map[string]string),
		expiresAt: make(map[string]time.Time),
	}
}

func (c *fakeRedisClient) Advance(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(duration)
	for key, expiry := range c.expiresAt {
		if !c.now.Before(expiry) {
			delete(c.values, key)
			delete(c.expiresAt, key)
		}
	}
}

func (c *fakeRedisClient) Get(_ context.Context, key string) *redis.StringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return redis.NewStringResult("", fmt.Errorf("connection refused"))
	}
	value, ok := c.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (c *fakeRedisClient) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return redis.NewStatusResult("", fmt.Errorf("connection refused"))
	}
	switch typed := value.(type) {
	case []byte:
		c.values[key] = string(typed)
	case string:
		c.values[key] = typed
	default:
		return redis.NewStatusResult("", fmt.Errorf("unsupported Set value type %T", value))
	}
	if expiration > 0 {
		c.expiresAt[key] = c.now.Add(expiration)
	} else {
		delete(c.expiresAt, key)
	}
	return redis.NewStatusResult("OK", nil)
}

func (c *fakeRedisClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := int64(0)
	for _, key := range keys {
		if _, ok := c.values[key]; ok {
			removed++
		}
		delete(c.values, key)
		delete(c.expiresAt, key)
	}
	return redis.NewIntResult(removed, nil)
}

func (c *fakeRedisClient) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := int64(0)
	for _, key := range keys {
		if _, ok := c.values[key]; ok {
			count++
		}
	}
	return redis.NewIntResult(count, nil)
}

func (c *fakeRedisClient) Ping(context.Context) *redis.StatusCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return redis.NewStatusResult("", fmt.Errorf("connection refused"))
	}
	return redis.NewStatusResult("PONG", nil)
}

func newTestRedisStore(t *testing.T) (*RedisStore, *fakeRedisClient) {
	t.Helper()
	client := newFakeRedisClient(time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC))
	return newRedisStoreFromCommander(client, nil), client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "key", sample{Name: "acme", Count: 7}, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got sample
	hit, err := store.Get(ctx, "key", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !hit || got.Name != "acme" || got.Count != 7 {
		t.Fatalf("unexpected result hit=%v value=%+v", hit, got)
	}
}

func TestRedisStoreMissOnNil(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	var got sample
	hit, err := store.Get(context.Background(), "absent", &got)
	if err != nil {
		t.Fatalf("redis.Nil should map to a miss, got error: %v", err)
	}
	if hit {
		t.Fatal("expected miss")
	}
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	t.Parallel()

	store, client := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "key", sample{Name: "acme"}, 3600*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	client.Advance(3601 * time.Second)

	var got sample
	hit, err := store.Get(ctx, "key", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hit {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestRedisStoreDelAndExists(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "key", sample{}, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	exists, err := store.Exists(ctx, "key")
	if err != nil || !exists {
		t.Fatalf("expected key to exist, exists=%v err=%v", exists, err)
	}
	if err := store.Del(ctx, "key"); err != nil {
		t.Fatalf("del: %v", err)
	}
	exists, err = store.Exists(ctx, "key")
	if err != nil || exists {
		t.Fatalf("expected key gone, exists=%v err=%v", exists, err)
	}
}

func TestRedisStoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	store, client := newTestRedisStore(t)
	client.failing = true
	ctx := context.Background()

	if _, err := store.Get(ctx, "key", &sample{}); err == nil {
		t.Fatal("expected get error")
	}
	if err := store.Set(ctx, "key", sample{}, time.Hour); err == nil {
		t.Fatal("expected set error")
	}
	if err := store.Ping(ctx); err == nil {
		t.Fatal("expected ping error")
	}
}
