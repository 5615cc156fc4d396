// Package decision resolves the single final action from a set of matched
// rules, grounded on the original service's DecisionResolver: block wins
// over mask wins over any other matched action, each tier picking its
// highest-priority rule; with no matches, the final action is allow.
package decision

import (
	"sort"

	"gateway/internal/types"
)

// Resolver picks one DecisionResult from a rule match set.
type Resolver struct{}

// New builds a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve returns the final action for matches, already found by
// rules.Engine.Evaluate.
func (r *Resolver) Resolve(matches []types.RuleMatch) types.DecisionResult {
	if len(matches) == 0 {
		return types.DecisionResult{FinalAction: types.ActionAllow}
	}

	sorted := make([]types.RuleMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	if chosen := firstWithAction(sorted, types.ActionBlock); chosen != nil {
		return types.DecisionResult{FinalAction: types.ActionBlock, Matched: sorted, Chosen: chosen}
	}

	if chosen := firstWithAction(sorted, types.ActionMask); chosen != nil {
		return types.DecisionResult{FinalAction: types.ActionMask, Matched: sorted, Chosen: chosen}
	}

	chosen := sorted[0]
	return types.DecisionResult{FinalAction: chosen.Action, Matched: sorted, Chosen: &chosen}
}

func firstWithAction(sorted []types.RuleMatch, action types.RuleAction) *types.RuleMatch {
	for i := range sorted {
		if sorted[i].Action == action {
			return &sorted[i]
		}
	}
	return nil
}
