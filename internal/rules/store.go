package rules

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gateway/internal/logger"
	"gateway/internal/types"
)

// Repository persists Rule rows. A tenant-scoped load returns every global
// rule (TenantID == nil) plus every rule scoped to the given tenant,
// mirroring the original service's
// "company_id = X OR company_id IS NULL" query.
type Repository interface {
	ListForTenant(ctx context.Context, tenantID *uuid.UUID) ([]types.Rule, error)
	// Upsert persists rule and returns the stored row with its resolved ID
	// (the existing row's ID when rule.ID was the zero UUID and a matching
	// (tenant, stable key) row already existed).
	Upsert(ctx context.Context, rule types.Rule) (types.Rule, error)
}

// MemoryRepository is an in-memory Repository, used in tests and as the
// default when no database is configured.
type MemoryRepository struct {
	mu    sync.RWMutex
	byKey map[string]types.Rule // stableKey + tenant suffix -> rule
}

// NewMemoryRepository builds an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byKey: make(map[string]types.Rule)}
}

func repoKey(tenantID *uuid.UUID, stableKey string) string {
	if tenantID == nil {
		return "global:" + stableKey
	}
	return tenantID.String() + ":" + stableKey
}

// ListForTenant returns global rules plus rules scoped to tenantID.
func (r *MemoryRepository) ListForTenant(_ context.Context, tenantID *uuid.UUID) ([]types.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.Rule
	for _, rule := range r.byKey {
		if !rule.Enabled {
			continue
		}
		if rule.TenantID == nil {
			out = append(out, rule)
			continue
		}
		if tenantID != nil && *rule.TenantID == *tenantID {
			out = append(out, rule)
		}
	}
	return out, nil
}

// Upsert stores rule keyed by (tenant, stable key), overwriting any
// existing row with the same key. If rule.ID is the zero UUID, the existing
// row's ID is reused (idempotent re-seeding) or a fresh ID is minted for a
// genuinely new rule.
func (r *MemoryRepository) Upsert(_ context.Context, rule types.Rule) (types.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := repoKey(rule.TenantID, rule.StableKey)
	if rule.ID == uuid.Nil {
		if existing, ok := r.byKey[key]; ok {
			rule.ID = existing.ID
		} else {
			rule.ID = uuid.New()
		}
	}
	r.byKey[key] = rule
	return rule, nil
}

// Store loads rules for a tenant, parsing each rule's conditions through
// the shared IRCache so unchanged rules are parsed at most once per
// (ruleID, conditions_version) pair, and returns them sorted by priority
// DESC for the Engine — matching the original service's
// ".order_by(Rule.priority.desc())".
type Store struct {
	repo  Repository
	cache *IRCache
	log   *logger.Logger
}

// NewStore builds a Store over repo, caching parsed condition trees in cache.
func NewStore(repo Repository, cache *IRCache, log *logger.Logger) *Store {
	return &Store{repo: repo, cache: cache, log: log}
}

// Load returns the tenant's enabled rules, priority DESC, with each rule's
// Conditions parsed from its stored RawConditions — consulting the shared
// IRCache first (get-or-parse per (rule id, conditions version)), so a rule
// whose conditions haven't changed since the last Load is never re-parsed.
// Rules built without RawConditions (e.g. constructed directly with a
// Conditions tree already set, as in tests) are passed through unchanged.
//
// Rules whose conditions fail to parse are dropped with a logged warning
// rather than failing the whole load — one malformed rule must not block
// every other tenant rule from being evaluated. RULE_MALFORMED is reserved
// for the rule-authoring path (RuleStore.Upsert / seed), where the author
// gets synchronous feedback (spec §7).
func (s *Store) Load(ctx context.Context, tenantID *uuid.UUID) ([]types.Rule, error) {
	loaded, err := s.repo.ListForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rules := make([]types.Rule, 0, len(loaded))
	for _, rule := range loaded {
		if rule.RawConditions != nil {
			cond, ok := s.conditionsFor(rule)
			if !ok {
				if s.log != nil {
					s.log.Warnf("rule_load", "dropping rule %q: conditions failed to parse", rule.StableKey)
				}
				continue
			}
			rule.Conditions = cond
		}
		rules = append(rules, rule)
	}

	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})

	return rules, nil
}

// conditionsFor returns rule's parsed Condition tree, checking the IRCache
// before re-parsing RawConditions and populating the cache on a miss.
func (s *Store) conditionsFor(rule types.Rule) (types.Condition, bool) {
	key := rule.ID.String()
	if s.cache != nil {
		if cond, ok := s.cache.Get(key, rule.ConditionsVersion); ok {
			return cond, true
		}
	}

	cond, err := ParseCondition(rule.RawConditions)
	if err != nil {
		return types.Condition{}, false
	}

	if s.cache != nil {
		s.cache.Put(key, rule.ConditionsVersion, cond)
	}
	return cond, true
}

// Upsert validates rule's conditions (via ParseCondition, called by the
// caller before reaching here — see Seeder.Upsert) and persists it,
// invalidating any stale cache entry for the rule's previous version.
func (s *Store) Upsert(ctx context.Context, rule types.Rule) error {
	stored, err := s.repo.Upsert(ctx, rule)
	if err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Put(stored.ID.String(), stored.ConditionsVersion, stored.Conditions)
	}
	return nil
}
