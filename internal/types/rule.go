package types

import "github.com/google/uuid"

// RuleAction is the enumeration of final actions the gateway can apply to
// a message (spec §3).
type RuleAction string

// Known rule actions.
const (
	ActionAllow RuleAction = "allow"
	ActionMask  RuleAction = "mask"
	ActionBlock RuleAction = "block"
	ActionWarn  RuleAction = "warn"
)

// RuleScope classifies what kind of traffic a rule applies to.
type RuleScope string

// Known rule scopes.
const (
	ScopePrompt RuleScope = "prompt"
	ScopeChat   RuleScope = "chat"
	ScopeFile   RuleScope = "file"
	ScopeAPI    RuleScope = "api"
)

// RuleSeverity is an informational label carried alongside a rule's action.
type RuleSeverity string

// Known rule severities.
const (
	SeverityLow    RuleSeverity = "low"
	SeverityMedium RuleSeverity = "medium"
	SeverityHigh   RuleSeverity = "high"
)

// RagMode controls whether a rule's match should be verified against a
// retrieval-augmented evidence loop. The verification loop itself is out of
// scope (spec §1); only the field's shape is carried through.
type RagMode string

// Known RAG modes.
const (
	RagOff     RagMode = "off"
	RagExplain RagMode = "explain"
	RagVerify  RagMode = "verify"
)

// Rule is a policy record: a named, scoped, prioritized condition tree
// mapped to an action. RawConditions is the rule's stored, untyped DSL tree;
// rules.Store.Load parses it into the typed Condition IR (see engine.go's
// Condition), consulting rules.IRCache first so an unchanged rule is parsed
// at most once per (rule id, conditions version), per Design Note (spec §9):
// "Rule tree built from untyped JSON ... cache the IR alongside the rule
// id."
type Rule struct {
	ID                uuid.UUID
	StableKey         string
	TenantID          *uuid.UUID // nil = global rule
	Name              string
	Description       string
	Scope             RuleScope
	RawConditions     map[string]any // author-supplied condition tree, as stored
	Conditions        Condition      // parsed IR; populated by rules.Store.Load
	Action            RuleAction
	Severity          RuleSeverity
	Priority          int
	RagMode           RagMode
	Enabled           bool
	ConditionsVersion int
}

// RuleMatch records one rule whose conditions evaluated true for a scan.
type RuleMatch struct {
	RuleID    uuid.UUID  `json:"rule_id"`
	StableKey string     `json:"stable_key"`
	Name      string     `json:"name"`
	Action    RuleAction `json:"action"`
	Priority  int        `json:"priority"`
}

// DecisionResult is the DecisionResolver's output.
type DecisionResult struct {
	FinalAction RuleAction
	Matched     []RuleMatch
	Chosen      *RuleMatch
}
