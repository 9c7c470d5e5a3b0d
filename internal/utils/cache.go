package utils

import (
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装缓存数据和过期时间
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Cache 基于 LRU 的本地缓存，条目带独立 TTL。
// 由 main 构造一次后注入给需要的服务，不再用全局单例。
type Cache struct {
	lruCache *lru.Cache[string, CacheItem]
}

// NewCache 创建指定容量的缓存
func NewCache(size int) *Cache {
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		log.Fatalf("Failed to create LRU cache: %v", err)
	}
	return &Cache{lruCache: l}
}

// Set 设置缓存，TTL 为过期时间
func (c *Cache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get 获取缓存，若不存在或已过期则返回 nil
func (c *Cache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}

	// 检查过期
	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}

	return val.Data
}

// Delete 删除指定缓存
func (c *Cache) Delete(key string) {
	c.lruCache.Remove(key)
}
