package repository

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"p9e.in/tms/pkg/schema"
)

// cacheTTL is how long a read snapshot stays valid. State-machine
// decisions that need the exact current row must bypass the cache.
const cacheTTL = 60 * time.Second

type cacheEntry struct {
	rows    []schema.Row
	expires time.Time
}

// ttlCache is a snapshot cache for table reads, keyed by
// (table, columns, daysBack, branch). Empty results are cached too.
type ttlCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newTTLCache() *ttlCache {
	return &ttlCache{entries: make(map[string]cacheEntry)}
}

func cacheKey(table string, columns []string, daysBack int, branch string) string {
	return fmt.Sprintf("%s|%s|%d|%s", table, strings.Join(columns, ","), daysBack, branch)
}

func (c *ttlCache) get(key string, now time.Time) ([]schema.Row, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || now.After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return copyRows(e.rows), true
}

func (c *ttlCache) put(key string, rows []schema.Row, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{rows: copyRows(rows), expires: now.Add(cacheTTL)}
}

// invalidate drops every cached snapshot for a table.
func (c *ttlCache) invalidate(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := table + "|"
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

func (c *ttlCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// copyRows makes a per-row shallow copy so callers cannot mutate the
// cached snapshot in place.
func copyRows(rows []schema.Row) []schema.Row {
	out := make([]schema.Row, len(rows))
	for i, row := range rows {
		cp := make(schema.Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}
