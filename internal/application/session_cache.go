package application

import (
	"sort"
	"sync"
)

// SessionCache maps session ids to sessions for the lifetime of a manager.
// Entries are only added, refreshed and removed by the manager's own reads and
// writes, so writers outside the manager can leave it stale. It is unbounded
// and safe for concurrent use.
type SessionCache struct {
	mu      sync.RWMutex
	entries map[string]Session
}

// NewSessionCache returns an empty cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{entries: make(map[string]Session)}
}

// Get returns the cached session for id.
func (c *SessionCache) Get(id string) (Session, bool) {
	if c == nil || id == "" {
		return Session{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	session, ok := c.entries[id]
	return session, ok
}

// Put stores or refreshes a session. Sessions without an id are ignored.
func (c *SessionCache) Put(session Session) {
	if c == nil || session.ID == "" {
		return
	}
	c.mu.Lock()
	c.entries[session.ID] = session
	c.mu.Unlock()
}

// PutAll stores every session that carries an id.
func (c *SessionCache) PutAll(sessions []Session) {
	if c == nil || len(sessions) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, session := range sessions {
		if session.ID != "" {
			c.entries[session.ID] = session
		}
	}
}

// Evict removes the entry for id.
func (c *SessionCache) Evict(id string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Len returns the number of cached sessions.
func (c *SessionCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// IDs returns the cached ids in sorted order.
func (c *SessionCache) IDs() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
