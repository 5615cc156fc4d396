// Package rules — cache.go
//
// PersistentCache is the interface for the cross-restart rule-IR cache. It
// stores ruleID+conditions_version -> parsed Condition tree (JSON-encoded),
// so a rule whose JSON conditions never change gets parsed once per process
// lifetime rather than once per scan, adapted from the teacher proxy's
// Ollama value cache (anonymizer/cache.go).
//
// Two implementations are provided:
//   - memoryCache — in-memory only, used in tests and when no path is configured.
//   - bboltCache  — embedded key-value store (bbolt), used in production.
package rules

import (
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"

	"gateway/internal/logger"
)

// PersistentCache is the cross-restart rule-IR cache interface. All
// implementations must be safe for concurrent use.
type PersistentCache interface {
	// Get returns the cached JSON-encoded Condition for key, if present.
	Get(key string) (value string, ok bool)

	// Set stores key -> value, overwriting any existing entry.
	Set(key, value string)

	// Delete removes key, if present.
	Delete(key string)

	// Close releases any resources held by the cache.
	Close() error
}

// --- memoryCache ---------------------------------------------------------

type memoryCache struct {
	mu    sync.RWMutex
	store map[string]string
}

func newMemoryCache() PersistentCache {
	return &memoryCache{store: make(map[string]string)}
}

func (c *memoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *memoryCache) Set(key, value string) {
	c.mu.Lock()
	c.store[key] = value
	c.mu.Unlock()
}

func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.store, key)
	c.mu.Unlock()
}

func (c *memoryCache) Close() error { return nil }

// --- bboltCache ----------------------------------------------------------

const bboltBucket = "rule_ir_cache"

// bboltCache is a PersistentCache backed by an embedded bbolt database. The
// database file is created at path if it does not exist.
type bboltCache struct {
	db  *bolt.DB
	log *logger.Logger
}

func newBboltCache(path string, log *logger.Logger) (PersistentCache, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt rule cache %q: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bboltBucket))
		return err
	}); err != nil {
		db.Close() //nolint:errcheck // best-effort close on init failure
		return nil, fmt.Errorf("create bbolt bucket: %w", err)
	}

	log.Infof("cache_open", "rule IR cache opened at %s", path)
	return &bboltCache{db: db, log: log}, nil
}

func (c *bboltCache) Get(key string) (string, bool) {
	var value string
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bboltBucket))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v != nil {
			value = string(v)
		}
		return nil
	})
	if err != nil {
		c.log.Errorf("cache_get", "bbolt Get error: %v", err)
		return "", false
	}
	return value, value != ""
}

func (c *bboltCache) Set(key, value string) {
	if err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bboltBucket))
		if b == nil {
			return fmt.Errorf("bucket %q not found", bboltBucket)
		}
		return b.Put([]byte(key), []byte(value))
	}); err != nil {
		c.log.Errorf("cache_set", "bbolt Set error: %v", err)
	}
}

func (c *bboltCache) Delete(key string) {
	if err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bboltBucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	}); err != nil {
		c.log.Errorf("cache_delete", "bbolt Delete error: %v", err)
	}
}

func (c *bboltCache) Close() error {
	return c.db.Close()
}
