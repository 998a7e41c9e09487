package qivivo

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_GetSet(t *testing.T) {
	cache := NewMemoryCache()

	cache.Set("key1", "value1", time.Hour)
	val, ok := cache.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != "value1" {
		t.Errorf("expected value1, got %v", val)
	}

	if _, ok := cache.Get("nonexistent"); ok {
		t.Error("expected nonexistent key to not exist")
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	clk := newFakeClock()
	cache := NewMemoryCacheWithClock(clk)

	cache.Set("expiring", "value", time.Minute)
	cache.Set("permanent", "value", 0)
	cache.Set("permanent2", "value", -time.Second)

	if _, ok := cache.Get("expiring"); !ok {
		t.Error("expected key to exist before expiration")
	}

	clk.Step(2 * time.Minute)

	if _, ok := cache.Get("expiring"); ok {
		t.Error("expected key to be expired")
	}
	for _, key := range []string{"permanent", "permanent2"} {
		if _, ok := cache.Get(key); !ok {
			t.Errorf("expected %s to never expire", key)
		}
	}
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	cache := NewMemoryCacheWithClock(newFakeClock())

	cache.Set("a", 1, time.Minute)
	cache.Set("b", 2, 0)
	cache.Set("c", 3, time.Hour)

	cache.Delete("a")
	if _, ok := cache.Get("a"); ok {
		t.Error("expected a to be deleted")
	}
	if v, ok := cache.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %v, %v; want 2, true", v, ok)
	}

	cache.Clear()
	for _, key := range []string{"b", "c"} {
		if _, ok := cache.Get(key); ok {
			t.Errorf("expected %s to be cleared", key)
		}
	}
}

func TestCacheKey(t *testing.T) {
	tests := []struct {
		resource string
		ids      []string
		want     string
	}{
		{"devices", nil, "devices"},
		{"devices", []string{"a"}, "devices:a"},
		{"devices", []string{"a", "b"}, "devices:a:b"},
	}
	for _, tt := range tests {
		if got := cacheKey(tt.resource, tt.ids...); got != tt.want {
			t.Errorf("cacheKey(%q, %v) = %q, want %q", tt.resource, tt.ids, got, tt.want)
		}
	}
}

func TestClient_InvalidateCache(t *testing.T) {
	f := newFakeQivivo(t)
	f.withDevices()
	client := f.client(newFakeClock())

	_, _ = client.Devices(context.Background())
	client.InvalidateCache(devicesResource)
	_, _ = client.Devices(context.Background())

	if got := f.count("GET /devices"); got != 2 {
		t.Errorf("device list requests = %d, want 2", got)
	}
}

func TestWithCache(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		client, err := NewClient(testClientID, testClientSecret, WithCache(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.cacheConfig == nil || client.cacheConfig.Cache == nil {
			t.Fatal("cache not configured")
		}
		if client.cacheConfig.DeviceListTTL != 0 {
			t.Errorf("DeviceListTTL = %v, want 0", client.cacheConfig.DeviceListTTL)
		}
	})

	t.Run("memory cache follows the client clock", func(t *testing.T) {
		clk := newFakeClock()
		cache := NewMemoryCache()
		if _, err := NewClient(testClientID, testClientSecret, WithClock(clk), WithCache(&CacheConfig{Cache: cache})); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cache.clock != clk {
			t.Error("cache clock not set to the client clock")
		}
	})
}
