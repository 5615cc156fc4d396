package types

import "strings"

// SignalKind tags which case of SignalValue is populated.
type SignalKind int

// SignalValue variants.
const (
	SignalNull SignalKind = iota
	SignalBool
	SignalNum
	SignalStr
	SignalList
	SignalMap
)

// SignalValue is a small closed sum type for values produced by the
// non-entity analyzers (ContextScorer, InjectionDetector) and consumed by
// the rule DSL. Design Note (spec §9) calls out "dynamic dict-shaped
// entities and signals" as a re-architecture target: rather than carry a
// bare map[string]any through the interpreter and type-assert at each leaf,
// every signal value is constructed through one of the helpers below, and
// the DSL interpreter switches on Kind exactly once per comparison.
type SignalValue struct {
	Kind SignalKind
	B    bool
	N    float64
	S    string
	L    []SignalValue
	M    map[string]SignalValue
}

// Null is the zero SignalValue, returned for missing dot-paths.
var Null = SignalValue{Kind: SignalNull}

// BoolVal wraps a bool as a SignalValue.
func BoolVal(b bool) SignalValue { return SignalValue{Kind: SignalBool, B: b} }

// NumVal wraps a float64 as a SignalValue.
func NumVal(n float64) SignalValue { return SignalValue{Kind: SignalNum, N: n} }

// StrVal wraps a string as a SignalValue.
func StrVal(s string) SignalValue { return SignalValue{Kind: SignalStr, S: s} }

// ListVal wraps a slice of strings as a SignalValue list.
func ListVal(items []string) SignalValue {
	l := make([]SignalValue, len(items))
	for i, v := range items {
		l[i] = StrVal(v)
	}
	return SignalValue{Kind: SignalList, L: l}
}

// MapVal wraps a map as a SignalValue.
func MapVal(m map[string]SignalValue) SignalValue { return SignalValue{Kind: SignalMap, M: m} }

// Equal reports whether two SignalValues represent the same value. Num
// comparisons are exact; callers comparing scores should round beforehand.
func (v SignalValue) Equal(other SignalValue) bool {
	if v.Kind != other.Kind {
		// A null-kind value never equals a populated one, including string "".
		return false
	}
	switch v.Kind {
	case SignalNull:
		return true
	case SignalBool:
		return v.B == other.B
	case SignalNum:
		return v.N == other.N
	case SignalStr:
		return v.S == other.S
	case SignalList:
		if len(v.L) != len(other.L) {
			return false
		}
		for i := range v.L {
			if !v.L[i].Equal(other.L[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Contains implements the DSL "contains" operator: if the receiver is a
// list, reports whether needle matches any element; if a string, reports a
// substring match; otherwise false.
func (v SignalValue) Contains(needle string) bool {
	switch v.Kind {
	case SignalList:
		for _, item := range v.L {
			if item.Kind == SignalStr && item.S == needle {
				return true
			}
		}
		return false
	case SignalStr:
		return strings.Contains(v.S, needle)
	default:
		return false
	}
}

// In implements the DSL "in" operator: reports whether the receiver equals
// any of candidates.
func (v SignalValue) In(candidates []SignalValue) bool {
	for _, c := range candidates {
		if v.Equal(c) {
			return true
		}
	}
	return false
}

// Signals is the nested signal map produced by non-entity analyzers,
// addressable by dot-path (e.g. "security.prompt_injection").
type Signals struct {
	Persona         *string  `json:"persona"`
	ContextKeywords []string `json:"context_keywords"`
	RiskBoost       float64  `json:"risk_boost"`
	Security        SecuritySignal `json:"security"`
}

// SecuritySignal is the InjectionDetector's contribution to Signals.
type SecuritySignal struct {
	Decision                 string  `json:"decision"` // ALLOW | REVIEW | BLOCK
	Score                    float64 `json:"score"`
	Reason                   string  `json:"reason"`
	PromptInjection          bool    `json:"prompt_injection"`
	PromptInjectionBlock     bool    `json:"prompt_injection_block"`
	PromptInjectionSuspected bool    `json:"prompt_injection_suspected"`
}

// ToMap renders Signals as the dot-path-addressable SignalValue tree the
// rule DSL interpreter evaluates against.
func (s Signals) ToMap() map[string]SignalValue {
	persona := Null
	if s.Persona != nil {
		persona = StrVal(*s.Persona)
	}
	return map[string]SignalValue{
		"persona":          persona,
		"context_keywords": ListVal(s.ContextKeywords),
		"risk_boost":       NumVal(s.RiskBoost),
		"security": MapVal(map[string]SignalValue{
			"decision":                    StrVal(s.Security.Decision),
			"score":                       NumVal(s.Security.Score),
			"reason":                      StrVal(s.Security.Reason),
			"prompt_injection":            BoolVal(s.Security.PromptInjection),
			"prompt_injection_block":      BoolVal(s.Security.PromptInjectionBlock),
			"prompt_injection_suspected":  BoolVal(s.Security.PromptInjectionSuspected),
		}),
	}
}

// Get resolves a dot-path against the signal tree, returning Null for any
// missing segment — the DSL treats a missing path as "no match", never an
// error.
func Get(m map[string]SignalValue, field string) SignalValue {
	parts := strings.Split(field, ".")
	cur := SignalValue{Kind: SignalMap, M: m}
	for _, part := range parts {
		if cur.Kind != SignalMap {
			return Null
		}
		next, ok := cur.M[part]
		if !ok {
			return Null
		}
		cur = next
	}
	return cur
}
