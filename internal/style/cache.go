package style

import (
	"strconv"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/tmstyle/internal/log"
	"github.com/zjrosen/tmstyle/internal/theme"
)

// CacheStats reports cache activity since the cache was created.
type CacheStats struct {
	Hits    int
	Misses  int
	Entries int
}

// Cache maps style attributes to resolved styles for one provider session.
// Entries never expire; the provider clears the cache on flush. Not safe
// for concurrent use beyond what go-cache itself guarantees.
type Cache struct {
	items  *gocache.Cache
	hits   int
	misses int
}

// NewCache creates an empty cache with no expiry and no janitor goroutine.
func NewCache() *Cache {
	return &Cache{items: gocache.New(gocache.NoExpiration, 0)}
}

// cacheKey encodes attrs so that equal attributes share one key.
func cacheKey(attrs theme.StyleAttributes) string {
	return strconv.Itoa(int(attrs.FontStyle)) + ":" +
		strconv.Itoa(attrs.ForegroundID) + ":" +
		strconv.Itoa(attrs.BackgroundID)
}

// Get returns a copy of the style stored for attrs.
func (c *Cache) Get(attrs theme.StyleAttributes) (ResolvedStyle, bool) {
	key := cacheKey(attrs)
	value, found := c.items.Get(key)
	if !found {
		c.misses++
		return ResolvedStyle{}, false
	}

	rs, ok := value.(ResolvedStyle)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "key", key)
		c.misses++
		return ResolvedStyle{}, false
	}

	c.hits++
	return rs, true
}

// Put stores rs for attrs, replacing any previous entry. Entries are held by
// value so callers cannot change what later lookups return.
func (c *Cache) Put(attrs theme.StyleAttributes, rs ResolvedStyle) {
	c.items.Set(cacheKey(attrs), rs, gocache.NoExpiration)
}

// GetOrResolve returns the cached style for attrs, calling resolve and
// storing its result on a miss.
func (c *Cache) GetOrResolve(attrs theme.StyleAttributes, resolve func(theme.StyleAttributes) ResolvedStyle) ResolvedStyle {
	if rs, ok := c.Get(attrs); ok {
		return rs
	}
	rs := resolve(attrs)
	c.Put(attrs, rs)
	return rs
}

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	n := c.items.ItemCount()
	c.items.Flush()
	if n > 0 {
		log.Debug(log.CatCache, "style cache cleared", "entries", n)
	}
}

// Len returns the number of cached styles.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// Stats returns hit and miss counts plus the current size.
func (c *Cache) Stats() CacheStats {
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: c.items.ItemCount()}
}
