package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values    map[string]string
	published map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:    map[string]string{},
		published: map[string][]string{},
	}
}

func (f *fakeStore) Ping(ctx context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	f.values[key] = value.(string)
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	if _, ok := f.values[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Get(ctx context.Context, key string) *goredis.StringCmd {
	val, ok := f.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(val, nil)
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	for _, key := range keys {
		delete(f.values, key)
	}
	return goredis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeStore) Publish(ctx context.Context, channel string, payload any) *goredis.IntCmd {
	f.published[channel] = append(f.published[channel], payload.(string))
	return goredis.NewIntResult(1, nil)
}

func TestSetGetDelRoundTrip(t *testing.T) {
	store := newFakeStore()
	client := &Client{store: store}
	ctx := context.Background()

	key := client.CacheKey("setting", "timezone")
	if key != "rd:cache:setting:timezone" {
		t.Fatalf("unexpected key %q", key)
	}

	if err := client.Set(ctx, key, "Asia/Shanghai", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "Asia/Shanghai" {
		t.Fatalf("unexpected value %q", got)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := client.Get(ctx, key); err != goredis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestPublishUsesNamespacedChannel(t *testing.T) {
	store := newFakeStore()
	client := &Client{store: store}

	channel := client.Channel("orders.changed")
	if channel != "rd:events:orders.changed" {
		t.Fatalf("unexpected channel %q", channel)
	}
	if err := client.Publish(context.Background(), channel, "order-1"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(store.published[channel]) != 1 {
		t.Fatalf("expected one message, got %v", store.published)
	}
}

func TestSetNXOnlyWritesOnce(t *testing.T) {
	store := newFakeStore()
	client := &Client{store: store}
	ctx := context.Background()

	ok, err := client.SetNX(ctx, "rd:lock:sweep", "owner-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first setnx: ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "rd:lock:sweep", "owner-2", time.Minute)
	if err != nil {
		t.Fatalf("second setnx: %v", err)
	}
	if ok {
		t.Fatal("expected second setnx to lose")
	}
	if store.values["rd:lock:sweep"] != "owner-1" {
		t.Fatalf("lock owner overwritten: %q", store.values["rd:lock:sweep"])
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	var client Client
	if err := client.Set(context.Background(), "k", "v", 0); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := client.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}
