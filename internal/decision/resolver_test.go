package decision

import (
	"testing"

	"github.com/google/uuid"

	"gateway/internal/types"
)

func TestResolve_NoMatchesAllows(t *testing.T) {
	got := New().Resolve(nil)
	if got.FinalAction != types.ActionAllow {
		t.Errorf("got %s, want allow", got.FinalAction)
	}
	if got.Chosen != nil {
		t.Error("expected no chosen rule")
	}
}

func TestResolve_BlockDominatesMask(t *testing.T) {
	matches := []types.RuleMatch{
		{RuleID: uuid.New(), Action: types.ActionMask, Priority: 100},
		{RuleID: uuid.New(), Action: types.ActionBlock, Priority: 1},
	}
	got := New().Resolve(matches)
	if got.FinalAction != types.ActionBlock {
		t.Errorf("got %s, want block (block always wins regardless of priority)", got.FinalAction)
	}
}

func TestResolve_MaskDominatesWarn(t *testing.T) {
	matches := []types.RuleMatch{
		{RuleID: uuid.New(), Action: types.ActionWarn, Priority: 100},
		{RuleID: uuid.New(), Action: types.ActionMask, Priority: 1},
	}
	got := New().Resolve(matches)
	if got.FinalAction != types.ActionMask {
		t.Errorf("got %s, want mask", got.FinalAction)
	}
}

func TestResolve_HighestPriorityBlockChosen(t *testing.T) {
	low := uuid.New()
	high := uuid.New()
	matches := []types.RuleMatch{
		{RuleID: low, Action: types.ActionBlock, Priority: 1},
		{RuleID: high, Action: types.ActionBlock, Priority: 50},
	}
	got := New().Resolve(matches)
	if got.Chosen == nil || got.Chosen.RuleID != high {
		t.Errorf("expected the higher-priority block rule to be chosen")
	}
}

func TestResolve_FallsBackToHighestPriorityMatch(t *testing.T) {
	low := uuid.New()
	high := uuid.New()
	matches := []types.RuleMatch{
		{RuleID: low, Action: types.ActionWarn, Priority: 1},
		{RuleID: high, Action: types.ActionWarn, Priority: 50},
	}
	got := New().Resolve(matches)
	if got.FinalAction != types.ActionWarn {
		t.Errorf("got %s, want warn", got.FinalAction)
	}
	if got.Chosen == nil || got.Chosen.RuleID != high {
		t.Error("expected the higher-priority rule to be chosen among equal-action matches")
	}
}
