package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Item 表示缓存项
type Item struct {
	Value      interface{}
	Expiration int64
}

// IsExpired 检查缓存项是否过期
func (item Item) IsExpired() bool {
	if item.Expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > item.Expiration
}

// Cache 表示一个内存缓存
type Cache struct {
	items             map[string]Item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	cleanupInterval   time.Duration
	stopCleanup       chan struct{}
	stopOnce          sync.Once

	hits   int64
	misses int64
}

// NewCache 创建一个新的缓存实例
// defaultExpiration 是默认的缓存项过期时间
// cleanupInterval <= 0 时不自动清理过期项
func NewCache(defaultExpiration, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		items:             make(map[string]Item),
		defaultExpiration: defaultExpiration,
		cleanupInterval:   cleanupInterval,
		stopCleanup:       make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.startCleanupTimer()
	}

	return c
}

// startCleanupTimer 启动清理定时器
func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.DeleteExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

// Set 添加一个带有过期时间的缓存项
func (c *Cache) Set(key string, value interface{}, duration time.Duration) {
	if duration == 0 {
		duration = c.defaultExpiration
	}

	var expiration int64
	if duration > 0 {
		expiration = time.Now().Add(duration).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = Item{
		Value:      value,
		Expiration: expiration,
	}
}

// Get 获取缓存项，如果项存在且未过期则返回true
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found || item.IsExpired() {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	return item.Value, true
}

// Delete 从缓存中删除一个项
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// DeleteExpired 删除所有过期的项
func (c *Cache) DeleteExpired() {
	now := time.Now().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range c.items {
		if v.Expiration > 0 && now > v.Expiration {
			delete(c.items, k)
		}
	}
}

// Count 返回缓存中的项数
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear 清空缓存
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]Item)
}

// GetMetrics 获取缓存指标
func (c *Cache) GetMetrics() map[string]interface{} {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)

	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"hits":     hits,
		"misses":   misses,
		"size":     c.Count(),
		"hit_rate": hitRate,
	}
}

// Stop 停止自动清理
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCleanup)
	})
}
