package handler

import (
	"sync"
	"time"

	"github.com/yumyai/blastview/pkg/model"
)

// How long an idle session keeps its merged result.
const defaultResultTTL = 2 * time.Hour

// SessionResult is the last merged result computed for one browser session.
type SessionResult struct {
	Params    model.Params
	Result    *model.AggregateResult
	UpdatedAt time.Time
}

// ResultCache stores merged results per session. Nothing is persisted; a restart clears it.
type ResultCache struct {
	mu       sync.RWMutex
	sessions map[string]*SessionResult
	ttl      time.Duration
	now      func() time.Time
}

// NewResultCache constructs a cache with no sessions.
func NewResultCache() *ResultCache {
	return &ResultCache{
		sessions: make(map[string]*SessionResult),
		ttl:      defaultResultTTL,
		now:      time.Now,
	}
}

// Store replaces the session's result.
func (c *ResultCache) Store(sessionID string, params model.Params, result *model.AggregateResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions[sessionID] = &SessionResult{
		Params:    params,
		Result:    result,
		UpdatedAt: c.now(),
	}
	c.evictLocked()
}

// Get fetches the session's result, if it has one that has not expired.
func (c *ResultCache) Get(sessionID string) (*SessionResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res, ok := c.sessions[sessionID]
	if !ok || c.now().Sub(res.UpdatedAt) > c.ttl {
		return nil, false
	}
	return res, true
}

// Len is the number of sessions currently held.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

func (c *ResultCache) evictLocked() {
	now := c.now()
	for id, res := range c.sessions {
		if now.Sub(res.UpdatedAt) > c.ttl {
			delete(c.sessions, id)
		}
	}
}
