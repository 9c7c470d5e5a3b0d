package utils

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	cache := NewCache(10)

	cache.Set("key", "value", time.Minute)
	if got := cache.Get("key"); got != "value" {
		t.Errorf("expected value, got %v", got)
	}

	if got := cache.Get("missing"); got != nil {
		t.Errorf("expected nil for missing key, got %v", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(10)

	// 负的 TTL 等价于已过期
	cache.Set("key", "value", -time.Second)
	if got := cache.Get("key"); got != nil {
		t.Errorf("expected expired entry to return nil, got %v", got)
	}
}

func TestCacheDelete(t *testing.T) {
	cache := NewCache(10)

	cache.Set("key", 42, time.Minute)
	cache.Delete("key")
	if got := cache.Get("key"); got != nil {
		t.Errorf("expected nil after delete, got %v", got)
	}
}

func TestCacheEviction(t *testing.T) {
	cache := NewCache(2)

	cache.Set("a", 1, time.Minute)
	cache.Set("b", 2, time.Minute)
	cache.Set("c", 3, time.Minute)

	// 容量 2，最早的 a 被挤出
	if got := cache.Get("a"); got != nil {
		t.Errorf("expected oldest entry evicted, got %v", got)
	}
	if got := cache.Get("c"); got != 3 {
		t.Errorf("expected newest entry kept, got %v", got)
	}
}
