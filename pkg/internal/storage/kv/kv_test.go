package kv_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/storage/kv"
)

func TestMemoryKVTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	store := kv.NewMemory().WithClock(func() time.Time { return now })

	if err := store.Set(ctx, "near:abc", []byte(`["x"]`), 5*time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := store.Set(ctx, "forever", []byte("1"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "near:abc")
	if err != nil || string(got) != `["x"]` {
		t.Fatalf("get before expiry = %q, %v", got, err)
	}

	now = now.Add(6 * time.Minute)

	if _, err := store.Get(ctx, "near:abc"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after expiry, got %v", err)
	}

	if ok, _ := store.Exists(ctx, "forever"); !ok {
		t.Fatal("key without ttl should never expire")
	}

	if err := store.Set(ctx, "near:def", []byte("y"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	now = now.Add(2 * time.Minute)

	keys, err := store.Keys(ctx, "*")
	if err != nil || !slices.Equal(keys, []string{"forever"}) {
		t.Fatalf("keys after expiry = %v, %v", keys, err)
	}
}

func TestMemoryKVKeysPattern(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	for _, k := range []string{"search:1", "search:2", "near:1"} {
		_ = store.Set(ctx, k, []byte("v"), 0)
	}

	keys, err := store.Keys(ctx, "search:*")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}

	slices.Sort(keys)

	if !slices.Equal(keys, []string{"search:1", "search:2"}) {
		t.Fatalf("keys = %v", keys)
	}

	all, _ := store.Keys(ctx, "")
	if len(all) != 3 {
		t.Fatalf("expected 3 keys, got %v", all)
	}
}

func TestMemoryKVCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	v := []byte("abc")
	_ = store.Set(ctx, "k", v, 0)
	v[0] = 'z'

	got, _ := store.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value mutated through caller slice: %q", got)
	}
}

func TestNewDefaultsToMemory(t *testing.T) {
	c, err := kv.New(context.Background(), &configs.KVConfig{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, ok := c.KVStore.(*kv.MemoryKV); !ok || c.Type != kv.KVTypeMemory {
		t.Fatalf("expected memory store, got %T (%s)", c.KVStore, c.Type)
	}

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var missing *kv.Client
	if err := missing.Ping(context.Background()); err == nil {
		t.Fatal("expected error pinging nil client")
	}

	if _, err := kv.New(context.Background(), &configs.KVConfig{Type: "etcd"}); err == nil {
		t.Fatal("expected error for unknown kv type")
	}
}

func TestGroupcacheKVOverwriteAndDelete(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewGroupcacheKV(ctx, &configs.GroupcacheKVConfig{
		Name:       "docvault-test-overwrite",
		CacheBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := store.Get(ctx, "search:q"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	_ = store.Set(ctx, "search:q", []byte("v1"), 0)

	if got, err := store.Get(ctx, "search:q"); err != nil || string(got) != "v1" {
		t.Fatalf("get = %q, %v", got, err)
	}

	_ = store.Set(ctx, "search:q", []byte("v2"), 0)

	if got, _ := store.Get(ctx, "search:q"); string(got) != "v2" {
		t.Fatalf("stale value after overwrite: %q", got)
	}

	_ = store.Delete(ctx, "search:q")

	if _, err := store.Get(ctx, "search:q"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}

	again, _ := kv.NewGroupcacheKV(ctx, &configs.GroupcacheKVConfig{Name: "docvault-test-overwrite", CacheBytes: 1 << 20})
	if again != store {
		t.Fatal("same group name should reuse the store")
	}
}

func TestNATSKeyEncoding(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"near:abc123", "near=abc123"},
		{"http:stats", "http=stats"},
		{"search:hello world", ""},
		{"_b64.sneaky", ""},
		{"a=b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			enc := kv.EncodeNATSKey(tt.key)
			if tt.want != "" && enc != tt.want {
				t.Fatalf("encode(%q) = %q, want %q", tt.key, enc, tt.want)
			}

			if got := kv.DecodeNATSKey(enc); got != tt.key {
				t.Fatalf("decode(%q) = %q, want %q", enc, got, tt.key)
			}
		})
	}
}

func TestRegisteredKVTypes(t *testing.T) {
	types := kv.GetRegisteredKVTypes()
	if !slices.Contains(types, kv.KVTypeMemory) {
		t.Fatalf("memory kv not registered: %v", types)
	}

	if !slices.IsSorted(types) {
		t.Fatalf("types not sorted: %v", types)
	}
}

func BenchmarkMemoryKV(b *testing.B) {
	ctx := context.Background()
	store := kv.NewMemory()
	payload := make([]byte, 1024)

	for _, ttl := range []time.Duration{0, 5 * time.Second} {
		b.Run(fmt.Sprintf("ttl=%s", ttl), func(b *testing.B) {
			b.ReportAllocs()

			for i := 0; b.Loop(); i++ {
				key := fmt.Sprintf("bench-%d", i)
				if err := store.Set(ctx, key, payload, ttl); err != nil {
					b.Fatalf("set failed: %v", err)
				}

				if _, err := store.Get(ctx, key); err != nil {
					b.Fatalf("get failed: %v", err)
				}

				_ = store.Delete(ctx, key)
			}
		})
	}
}
