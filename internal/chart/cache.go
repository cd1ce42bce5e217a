package chart

import (
	"sync"
	"time"
)

type CacheItem struct {
	ChartData  []byte
	Caption    string
	Expiration time.Time
}

// Cache keeps rendered charts for a short time so repeated commands do not refetch
type Cache struct {
	mu    sync.Mutex
	items map[string]*CacheItem
	now   func() time.Time
}

func NewCache() *Cache {
	return &Cache{items: make(map[string]*CacheItem), now: time.Now}
}

func (c *Cache) Get(key string) (*CacheItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, found := c.items[key]; found && c.now().Before(item.Expiration) {
		return item, true
	}
	return nil, false
}

func (c *Cache) Set(key string, chartData []byte, caption string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &CacheItem{
		ChartData:  chartData,
		Caption:    caption,
		Expiration: c.now().Add(duration),
	}
}
