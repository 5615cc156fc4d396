package rules

import (
	"gateway/internal/types"
)

// Engine evaluates parsed Condition trees against a scan's entities and
// signals, grounded on the original service's RuleEngine._match_conditions.
type Engine struct{}

// NewEngine builds an Engine. It carries no state — all inputs come in per
// call — so one Engine value is shared across every scan.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate returns every rule (already ordered by the caller, typically
// priority DESC) whose conditions tree matches entities and signals.
func (e *Engine) Evaluate(rules []types.Rule, entities []types.Entity, signals map[string]types.SignalValue) []types.RuleMatch {
	var matches []types.RuleMatch
	for _, r := range rules {
		if e.match(r.Conditions, entities, signals) {
			matches = append(matches, types.RuleMatch{
				RuleID:    r.ID,
				StableKey: r.StableKey,
				Name:      r.Name,
				Action:    r.Action,
				Priority:  r.Priority,
			})
		}
	}
	return matches
}

func (e *Engine) match(c types.Condition, entities []types.Entity, signals map[string]types.SignalValue) bool {
	switch c.Kind {
	case types.CondAny:
		for _, child := range c.Children {
			if e.match(child, entities, signals) {
				return true
			}
		}
		return false

	case types.CondAll:
		for _, child := range c.Children {
			if !e.match(child, entities, signals) {
				return false
			}
		}
		return true

	case types.CondNot:
		if c.Child == nil {
			return true
		}
		return !e.match(*c.Child, entities, signals)

	case types.CondEntityType:
		return hasEntity(entities, c)

	case types.CondSignal:
		return matchSignal(c, signals)

	default:
		return false
	}
}

func hasEntity(entities []types.Entity, c types.Condition) bool {
	for _, ent := range entities {
		if ent.Type != c.EntityType {
			continue
		}
		if ent.Score < c.MinScore {
			continue
		}
		if c.HasSource && ent.Source != c.Source {
			continue
		}
		return true
	}
	return false
}

func matchSignal(c types.Condition, signals map[string]types.SignalValue) bool {
	value := types.Get(signals, c.Field)
	switch c.Op {
	case types.SignalOpEquals:
		return value.Equal(c.Equals)
	case types.SignalOpIn:
		return value.In(c.InSet)
	case types.SignalOpContains:
		return value.Contains(c.Contains)
	default:
		return false
	}
}
