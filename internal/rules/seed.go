package rules

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gateway/internal/apperr"
	"gateway/internal/types"
)

// seedFile is the top-level shape of a rule-seed YAML file.
type seedFile struct {
	Defaults seedDefaults `yaml:"defaults"`
	Rules    []seedRule   `yaml:"rules"`
}

type seedDefaults struct {
	Scope             string `yaml:"scope"`
	Severity          string `yaml:"severity"`
	Priority          int    `yaml:"priority"`
	RagMode           string `yaml:"rag_mode"`
	Enabled           *bool  `yaml:"enabled"`
	ConditionsVersion int    `yaml:"conditions_version"`
}

type seedRule struct {
	Key               string         `yaml:"key"`
	Name              string         `yaml:"name"`
	Description       string         `yaml:"description"`
	Scope             string         `yaml:"scope"`
	Action            string         `yaml:"action"`
	Severity          string         `yaml:"severity"`
	Priority          *int           `yaml:"priority"`
	RagMode           string         `yaml:"rag_mode"`
	Enabled           *bool          `yaml:"enabled"`
	ConditionsVersion *int           `yaml:"conditions_version"`
	Conditions        map[string]any `yaml:"conditions"`
}

// Seeder loads global rules from a YAML file and upserts them into a Store,
// adapted from the original service's RuleSeeder.upsert_global_rules.
type Seeder struct {
	store *Store
}

// NewSeeder builds a Seeder writing into store.
func NewSeeder(store *Store) *Seeder {
	return &Seeder{store: store}
}

// SeedGlobal reads path and upserts every rule in it as a global rule
// (TenantID == nil). Returns the number of rules processed. The whole file
// is rejected — nothing is partially applied — if any single rule's
// conditions tree is malformed, matching RULE_MALFORMED's synchronous
// feedback contract (spec §7): a seed operator should see the error for the
// rule they just wrote, not a silent skip.
func (s *Seeder) SeedGlobal(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a controlled config file path
	if err != nil {
		return 0, fmt.Errorf("read seed file %s: %w", path, err)
	}

	var parsed seedFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if len(parsed.Rules) == 0 {
		return 0, apperr.ValidationError("seed file has no rules", "rules", "missing")
	}

	built := make([]types.Rule, 0, len(parsed.Rules))
	for _, r := range parsed.Rules {
		rule, err := buildSeedRule(r, parsed.Defaults)
		if err != nil {
			return 0, fmt.Errorf("rule %q: %w", r.Key, err)
		}
		built = append(built, rule)
	}

	for _, rule := range built {
		if err := s.store.Upsert(ctx, rule); err != nil {
			return 0, fmt.Errorf("upsert rule %q: %w", rule.StableKey, err)
		}
	}

	return len(built), nil
}

func buildSeedRule(r seedRule, defaults seedDefaults) (types.Rule, error) {
	if r.Key == "" {
		return types.Rule{}, apperr.RuleMalformed("rule missing required \"key\"")
	}
	if r.Conditions == nil {
		return types.Rule{}, apperr.RuleMalformed(fmt.Sprintf("rule %q missing conditions", r.Key))
	}

	cond, err := ParseCondition(r.Conditions)
	if err != nil {
		return types.Rule{}, err
	}

	scope := firstNonEmpty(r.Scope, defaults.Scope, string(types.ScopeChat))
	severity := firstNonEmpty(r.Severity, defaults.Severity, string(types.SeverityMedium))
	ragMode := firstNonEmpty(r.RagMode, defaults.RagMode, string(types.RagOff))

	if r.Action == "" {
		return types.Rule{}, apperr.RuleMalformed(fmt.Sprintf("rule %q missing action", r.Key))
	}

	priority := defaults.Priority
	if r.Priority != nil {
		priority = *r.Priority
	}

	enabled := true
	if defaults.Enabled != nil {
		enabled = *defaults.Enabled
	}
	if r.Enabled != nil {
		enabled = *r.Enabled
	}

	version := defaults.ConditionsVersion
	if version == 0 {
		version = 1
	}
	if r.ConditionsVersion != nil {
		version = *r.ConditionsVersion
	}

	return types.Rule{
		// ID is left zero-value: Repository.Upsert resolves the existing row's
		// ID by (tenant, stable key) if one exists, so re-running the seed file
		// is idempotent instead of minting a fresh rule each time (spec §6).
		StableKey:         r.Key,
		TenantID:          nil,
		Name:              r.Name,
		Description:       r.Description,
		Scope:             types.RuleScope(scope),
		RawConditions:     r.Conditions,
		Conditions:        cond,
		Action:            types.RuleAction(r.Action),
		Severity:          types.RuleSeverity(severity),
		Priority:          priority,
		RagMode:           types.RagMode(ragMode),
		Enabled:           enabled,
		ConditionsVersion: version,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
