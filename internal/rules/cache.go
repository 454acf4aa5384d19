package rules

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of distinct patterns kept by NewCache
// when a non-positive size is given.
const DefaultCacheSize = 128

// cacheEntry is a memoized compile result. Failures are cached too, so a
// broken pattern is diagnosed on every scan without being recompiled.
type cacheEntry struct {
	re  *regexp.Regexp
	err error
}

// Cache memoizes compiled patterns. It is safe for concurrent use and may be
// shared by every scan; *regexp.Regexp itself is safe for concurrent matching.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
}

// NewCache creates a cache holding up to size patterns.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Compile returns the compiled form of pattern, compiling it on a miss.
func (c *Cache) Compile(pattern string) (*regexp.Regexp, error) {
	if e, ok := c.entries.Get(pattern); ok {
		return e.re, e.err
	}
	re, err := compilePattern(pattern)
	c.entries.Add(pattern, cacheEntry{re: re, err: err})
	return re, err
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	return c.entries.Len()
}
