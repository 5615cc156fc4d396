package types

// ConditionKind tags which node shape a Condition represents (spec §4.8).
type ConditionKind int

// Condition node kinds.
const (
	CondAny ConditionKind = iota
	CondAll
	CondNot
	CondEntityType
	CondSignal
)

// SignalOp is the comparison operator for a CondSignal leaf.
type SignalOp int

// Signal operators.
const (
	SignalOpEquals SignalOp = iota
	SignalOpIn
	SignalOpContains
)

// Condition is the typed intermediate representation a raw JSON DSL tree is
// validated into exactly once, at rule-load time (Design Note, spec §9).
// The RuleEngine only ever walks Condition values, never raw map[string]any,
// so a malformed tree fails fast at load/parse time rather than mid-scan —
// except where spec §8 scenario 6 requires a scan-time RuleMalformed, which
// ParseCondition's caller arranges by parsing lazily per RuleStore.Load call.
type Condition struct {
	Kind ConditionKind

	// CondAny / CondAll
	Children []Condition

	// CondNot
	Child *Condition

	// CondEntityType
	EntityType EntityType
	MinScore   float64
	Source     EntitySource
	HasSource  bool

	// CondSignal
	Field    string
	Op       SignalOp
	Equals   SignalValue
	InSet    []SignalValue
	Contains string
}
