package rules

import (
	"encoding/json"
	"fmt"

	"gateway/internal/logger"
	"gateway/internal/types"
)

// IRCache caches parsed Condition trees keyed by rule ID and conditions
// version, so RuleStore.Load only re-parses a rule's JSON conditions after
// its conditions_version changes. A single-writer/multi-reader discipline
// is expected of callers: the rule-seed path is the only writer, scans only
// read.
type IRCache struct {
	backing PersistentCache
}

// NewIRCache builds a process-wide rule IR cache. If path is empty, the
// cache is in-memory only and does not survive restarts. capacity bounds
// the number of cached condition trees kept hot.
func NewIRCache(path string, capacity int, log *logger.Logger) (*IRCache, error) {
	var backing PersistentCache
	if path == "" {
		backing = newMemoryCache()
	} else {
		bolted, err := newBboltCache(path, log)
		if err != nil {
			return nil, err
		}
		backing = bolted
	}
	return &IRCache{backing: newS3FIFOCache(backing, capacity, log)}, nil
}

func cacheKey(ruleID string, version int) string {
	return fmt.Sprintf("%s:%d", ruleID, version)
}

// Get returns the cached Condition tree for (ruleID, version), if present.
func (c *IRCache) Get(ruleID string, version int) (types.Condition, bool) {
	raw, ok := c.backing.Get(cacheKey(ruleID, version))
	if !ok {
		return types.Condition{}, false
	}
	var cond types.Condition
	if err := json.Unmarshal([]byte(raw), &cond); err != nil {
		return types.Condition{}, false
	}
	return cond, true
}

// Put stores the parsed Condition tree for (ruleID, version).
func (c *IRCache) Put(ruleID string, version int, cond types.Condition) {
	encoded, err := json.Marshal(cond)
	if err != nil {
		return
	}
	c.backing.Set(cacheKey(ruleID, version), string(encoded))
}

// Invalidate drops every cached version for ruleID. Used when a rule is
// deleted rather than merely updated (an update simply bumps the version
// and lets the old entry age out).
func (c *IRCache) Invalidate(ruleID string, version int) {
	c.backing.Delete(cacheKey(ruleID, version))
}

// Close releases the underlying storage.
func (c *IRCache) Close() error {
	return c.backing.Close()
}
