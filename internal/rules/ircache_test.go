package rules

import (
	"testing"
	"time"

	"gateway/internal/logger"
	"gateway/internal/types"
)

func TestIRCache_PutGet_InMemory(t *testing.T) {
	log := logger.New("TEST", "error")
	cache, err := NewIRCache("", 100, log)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	cond := types.Condition{Kind: types.CondEntityType, EntityType: types.EntityEmail, MinScore: 0.5}
	cache.Put("rule-1", 1, cond)

	got, ok := cache.Get("rule-1", 1)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.EntityType != types.EntityEmail || got.MinScore != 0.5 {
		t.Errorf("got %+v, want round-tripped condition", got)
	}
}

func TestIRCache_MissForDifferentVersion(t *testing.T) {
	log := logger.New("TEST", "error")
	cache, err := NewIRCache("", 100, log)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	cache.Put("rule-1", 1, types.Condition{Kind: types.CondEntityType, EntityType: types.EntityEmail})
	if _, ok := cache.Get("rule-1", 2); ok {
		t.Error("expected miss for a different conditions_version")
	}
}

func TestS3FIFOCache_EvictsBeyondCapacity(t *testing.T) {
	log := logger.New("TEST", "error")
	backing := newMemoryCache()
	cache := newS3FIFOCache(backing, 2, log)

	cache.Set("a", "1")
	cache.Set("b", "2")
	cache.Set("c", "3")
	time.Sleep(20 * time.Millisecond) // allow async backing-store eviction to settle

	hits := 0
	for _, k := range []string{"a", "b", "c"} {
		if _, ok := cache.Get(k); ok {
			hits++
		}
	}
	if hits > 2 {
		t.Errorf("got %d resident keys, want at most capacity (2)", hits)
	}
}
