// Package transferstate implements a request-scoped response cache that is
// populated during a server-side render pass, embedded into the rendered HTML
// document, and drained once by the hydrating client. It prevents the first
// client-side render from re-fetching data the server already fetched.
package transferstate

import (
	"encoding/json"
	"sort"
	"sync"
)

// Cache is a key-value store of fetched response bodies, keyed by the
// canonical request signature (see Key). One Cache belongs to exactly one
// rendered document: the server creates it for a render pass, and the client
// reconstructs an equivalent instance from the document.
//
// The mutex only guards concurrent fetches within a single render pass;
// a Cache is never shared across requests.
type Cache struct {
	mu      sync.Mutex
	entries map[string]json.RawMessage
}

// NewCache returns an empty cache for a new render pass.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]json.RawMessage),
	}
}

// Has reports whether a value is stored under the given key.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Get returns the value stored under the given key.
// Get does not consume the entry; read-once semantics are the fetch
// client's responsibility.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value under the given key, replacing any previous value.
func (c *Cache) Set(key string, value json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Remove deletes the entry for the given key, if any.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the stored keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON serializes the cache as a flat JSON object.
// This is the representation embedded into the rendered document.
func (c *Cache) MarshalJSON() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return json.Marshal(c.entries)
}

// UnmarshalJSON replaces the cache contents with the given snapshot.
func (c *Cache) UnmarshalJSON(b []byte) error {
	entries := make(map[string]json.RawMessage)
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	return nil
}
