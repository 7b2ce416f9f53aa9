package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"dlt-predictor/internal/logger"
)

// MemoryItem 内存缓存项
type MemoryItem struct {
	Value     interface{}
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (item *MemoryItem) expired(now time.Time) bool {
	return now.After(item.ExpiresAt)
}

// MemoryStats 内存缓存统计
type MemoryStats struct {
	Size    int   `json:"size"`
	MaxSize int   `json:"max_size"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Evicted int64 `json:"evicted"`
}

// MemoryCache 带过期时间和容量上限的内存缓存，可并发使用
//
// 缓存的值按引用返回，调用方不能修改。
type MemoryCache struct {
	mu      sync.RWMutex
	items   map[string]*MemoryItem
	maxSize int

	hits    int64
	misses  int64
	evicted int64

	now func() time.Time
}

// NewMemoryCache 创建新的内存缓存，maxSize 小于 1 时按 1 计
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &MemoryCache{
		items:   make(map[string]*MemoryItem),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Set 设置缓存值，超出容量时淘汰最早写入的一项
func (m *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.items[key]; !exists && len(m.items) >= m.maxSize {
		m.evictOldest()
	}
	m.items[key] = &MemoryItem{Value: value, ExpiresAt: now.Add(ttl), CreatedAt: now}
	logger.Debugf("Memory cache set: %s", key)
}

// Get 获取缓存值，过期的项会被删除
func (m *MemoryCache) Get(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, exists := m.items[key]
	if !exists {
		m.misses++
		return nil, false
	}
	if item.expired(m.now()) {
		delete(m.items, key)
		m.misses++
		return nil, false
	}
	m.hits++
	return item.Value, true
}

// Delete 删除缓存
func (m *MemoryCache) Delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

// DeletePattern 删除匹配模式的缓存，返回删除个数
func (m *MemoryCache) DeletePattern(pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for key := range m.items {
		if matchPattern(pattern, key) {
			delete(m.items, key)
			count++
		}
	}
	if count > 0 {
		logger.Debugf("Memory cache deleted by pattern: %s, count: %d", pattern, count)
	}
	return count
}

// Size 当前缓存项个数（含尚未清理的过期项）
func (m *MemoryCache) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Stats 获取缓存统计信息
func (m *MemoryCache) Stats() MemoryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MemoryStats{
		Size:    len(m.items),
		MaxSize: m.maxSize,
		Hits:    m.hits,
		Misses:  m.misses,
		Evicted: m.evicted,
	}
}

// Run 定期清理过期项，直到 ctx 结束
func (m *MemoryCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanupExpired()
		}
	}
}

// cleanupExpired 清理过期的缓存项
func (m *MemoryCache) cleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	count := 0
	for key, item := range m.items {
		if item.expired(now) {
			delete(m.items, key)
			count++
		}
	}
	if count > 0 {
		logger.Debugf("Memory cache cleanup: removed %d expired items", count)
	}
	return count
}

// evictOldest 淘汰最旧的缓存项，调用方持有写锁
func (m *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest *MemoryItem
	for key, item := range m.items {
		if oldest == nil || item.CreatedAt.Before(oldest.CreatedAt) {
			oldestKey, oldest = key, item
		}
	}
	if oldest != nil {
		delete(m.items, oldestKey)
		m.evicted++
		logger.Debugf("Memory cache evicted oldest: %s", oldestKey)
	}
}

// matchPattern 支持 * 和末尾 * 的前缀匹配
func matchPattern(pattern, key string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == key
}
