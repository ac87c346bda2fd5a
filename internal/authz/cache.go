package authz

import (
	"sync"
	"time"
)

// DefaultCacheTTL bounds how long a stale grant set can survive a
// permission sync running in another process.
const DefaultCacheTTL = time.Minute

// RoleCache keeps resolved grant lists per role id so the request
// authenticator does not re-query the role_permission join on every
// request.  Entries expire after a TTL because the sync procedure may
// run in a separate process; an in-process sync calls Invalidate to
// drop stale entries immediately.
type RoleCache struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[uint64]cacheEntry
}

type cacheEntry struct {
	grants  []string
	expires time.Time
}

// NewRoleCache builds a cache whose entries live for ttl.  A zero or
// negative ttl disables caching entirely: Get never hits.
func NewRoleCache(ttl time.Duration) *RoleCache {
	return &RoleCache{ttl: ttl, m: make(map[uint64]cacheEntry)}
}

// Get returns the cached grants for a role id, or ok=false when the
// entry is missing or expired.
func (c *RoleCache) Get(roleID uint64) ([]string, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.m[roleID]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.grants, true
}

// Put stores the grants for a role id.
func (c *RoleCache) Put(roleID uint64, grants []string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.m[roleID] = cacheEntry{grants: grants, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops every cached entry.  Called after a permission sync.
func (c *RoleCache) Invalidate() {
	c.mu.Lock()
	c.m = make(map[uint64]cacheEntry)
	c.mu.Unlock()
}
