package nusmods

import (
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pfrederiksen/night-courses/internal/catalog"
)

// DefaultCacheTTL is how long a fetched module detail stays fresh
const DefaultCacheTTL = 24 * time.Hour

// Cache keeps fetched module details with a TTL. It is safe for concurrent use.
type Cache struct {
	items *gocache.Cache
	ttl   time.Duration
}

type cachedValue struct {
	detail   *catalog.ModuleDetail
	cachedAt time.Time
}

// NewCache creates an empty cache. Expired entries are dropped lazily and by
// CleanExpired; no background goroutine is started.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		items: gocache.New(ttl, 0),
		ttl:   ttl,
	}
}

func cacheKey(moduleCode string) string {
	return strings.ToUpper(strings.TrimSpace(moduleCode))
}

// Get returns the cached detail for a module, or nil if missing or expired
func (c *Cache) Get(moduleCode string) *catalog.ModuleDetail {
	v, ok := c.items.Get(cacheKey(moduleCode))
	if !ok {
		return nil
	}
	return v.(cachedValue).detail
}

// Set stores a module detail. Nil details are ignored so failures are never cached.
func (c *Cache) Set(moduleCode string, detail *catalog.ModuleDetail) {
	if detail == nil {
		return
	}
	c.items.Set(cacheKey(moduleCode), cachedValue{detail: detail, cachedAt: time.Now()}, c.ttl)
}

// Restore loads persisted entries, keeping each one's original fetch time.
// Entries already past the TTL are skipped. Returns the number restored.
func (c *Cache) Restore(entries []catalog.CachedDetail) int {
	restored := 0
	for _, e := range entries {
		if e.Detail == nil || e.Detail.ModuleCode == "" {
			continue
		}
		remaining := c.ttl - time.Since(e.CachedAt)
		if remaining <= 0 {
			continue
		}
		c.items.Set(cacheKey(e.Detail.ModuleCode), cachedValue{detail: e.Detail, cachedAt: e.CachedAt}, remaining)
		restored++
	}
	return restored
}

// Entries returns every unexpired entry sorted by module code
func (c *Cache) Entries() []catalog.CachedDetail {
	items := c.items.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]catalog.CachedDetail, 0, len(keys))
	for _, k := range keys {
		v := items[k].Object.(cachedValue)
		entries = append(entries, catalog.CachedDetail{Detail: v.detail, CachedAt: v.cachedAt})
	}
	return entries
}

// CleanExpired removes expired entries and returns how many were removed
func (c *Cache) CleanExpired() int {
	before := c.items.ItemCount()
	c.items.DeleteExpired()
	return before - c.items.ItemCount()
}

// Size returns the number of stored entries, including expired ones not yet cleaned
func (c *Cache) Size() int {
	return c.items.ItemCount()
}
