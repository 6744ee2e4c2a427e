package mcp

import (
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yuanlichao666/llm-ops/internal/chunker"
)

const separatorCacheSize = 64

// separatorCache keeps compiled sentence separators keyed by pattern, so a
// client repeating a custom separator compiles it once
type separatorCache struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

func newSeparatorCache(size int) (*separatorCache, error) {
	cache, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create separator cache: %w", err)
	}
	return &separatorCache{cache: cache}, nil
}

// get returns the compiled pattern. An empty pattern selects the default
// sentence separator.
func (c *separatorCache) get(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = chunker.DefaultSeparator
	}
	if re, ok := c.cache.Get(pattern); ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	c.cache.Add(pattern, re)
	return re, nil
}

func (c *separatorCache) len() int {
	return c.cache.Len()
}
