// Package rules parses, stores, caches, and evaluates policy rules: the
// untyped JSON/YAML conditions tree a rule author writes is parsed exactly
// once into a types.Condition IR (ParseCondition), then the Engine walks
// that IR against a scan's entities and signals (spec §4.8, Design Note
// in spec §9). Grounded on the original service's RuleEngine._match_conditions
// and Rule/seed.py models.
package rules

import (
	"fmt"

	"gateway/internal/apperr"
	"gateway/internal/types"
)

// ParseCondition validates and converts one raw DSL node (as decoded from
// JSON or YAML into map[string]any) into a types.Condition. It is the single
// point where an untyped rule tree is checked for shape; every other
// component only ever walks the typed result.
func ParseCondition(raw map[string]any) (types.Condition, error) {
	if v, ok := raw["any"]; ok {
		children, err := parseChildren(v, "any")
		if err != nil {
			return types.Condition{}, err
		}
		return types.Condition{Kind: types.CondAny, Children: children}, nil
	}

	if v, ok := raw["all"]; ok {
		children, err := parseChildren(v, "all")
		if err != nil {
			return types.Condition{}, err
		}
		return types.Condition{Kind: types.CondAll, Children: children}, nil
	}

	if v, ok := raw["not"]; ok {
		inner, ok := v.(map[string]any)
		if !ok {
			return types.Condition{}, apperr.RuleMalformed(`"not" must contain a single condition object`)
		}
		child, err := ParseCondition(inner)
		if err != nil {
			return types.Condition{}, err
		}
		return types.Condition{Kind: types.CondNot, Child: &child}, nil
	}

	if v, ok := raw["entity_type"]; ok {
		return parseEntityType(v, raw)
	}

	if v, ok := raw["signal"]; ok {
		return parseSignal(v)
	}

	return types.Condition{}, apperr.RuleMalformed(fmt.Sprintf("unsupported condition node: %v", raw))
}

func parseChildren(v any, key string) ([]types.Condition, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, apperr.RuleMalformed(fmt.Sprintf(`%q must be a list of conditions`, key))
	}
	children := make([]types.Condition, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, apperr.RuleMalformed(fmt.Sprintf(`%q entries must be condition objects`, key))
		}
		c, err := ParseCondition(m)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, nil
}

func parseEntityType(v any, raw map[string]any) (types.Condition, error) {
	etStr, ok := v.(string)
	if !ok || etStr == "" {
		return types.Condition{}, apperr.RuleMalformed(`"entity_type" must be a non-empty string`)
	}

	cond := types.Condition{
		Kind:       types.CondEntityType,
		EntityType: types.EntityType(etStr),
	}

	if ms, ok := raw["min_score"]; ok {
		f, ok := asFloat(ms)
		if !ok {
			return types.Condition{}, apperr.RuleMalformed(`"min_score" must be a number`)
		}
		cond.MinScore = f
	}

	if src, ok := raw["source"]; ok {
		s, ok := src.(string)
		if !ok || s == "" {
			return types.Condition{}, apperr.RuleMalformed(`"source" must be a non-empty string`)
		}
		cond.Source = types.EntitySource(s)
		cond.HasSource = true
	}

	return cond, nil
}

func parseSignal(v any) (types.Condition, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return types.Condition{}, apperr.RuleMalformed(`"signal" must be an object`)
	}

	field, ok := m["field"].(string)
	if !ok || field == "" {
		return types.Condition{}, apperr.RuleMalformed(`"signal.field" must be a non-empty string`)
	}

	cond := types.Condition{Kind: types.CondSignal, Field: field}

	switch {
	case hasKey(m, "equals"):
		cond.Op = types.SignalOpEquals
		cond.Equals = toSignalValue(m["equals"])
	case hasKey(m, "in"):
		list, ok := m["in"].([]any)
		if !ok {
			return types.Condition{}, apperr.RuleMalformed(`"signal.in" must be a list`)
		}
		cond.Op = types.SignalOpIn
		cond.InSet = make([]types.SignalValue, len(list))
		for i, item := range list {
			cond.InSet[i] = toSignalValue(item)
		}
	case hasKey(m, "contains"):
		s, ok := m["contains"].(string)
		if !ok {
			return types.Condition{}, apperr.RuleMalformed(`"signal.contains" must be a string`)
		}
		cond.Op = types.SignalOpContains
		cond.Contains = s
	default:
		return types.Condition{}, apperr.RuleMalformed(fmt.Sprintf("unsupported signal operator: %v", m))
	}

	return cond, nil
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func toSignalValue(v any) types.SignalValue {
	switch t := v.(type) {
	case nil:
		return types.Null
	case bool:
		return types.BoolVal(t)
	case string:
		return types.StrVal(t)
	case float64:
		return types.NumVal(t)
	case int:
		return types.NumVal(float64(t))
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return types.ListVal(items)
	default:
		return types.Null
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
