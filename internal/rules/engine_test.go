package rules

import (
	"testing"

	"github.com/google/uuid"

	"gateway/internal/types"
)

func mustParse(t *testing.T, raw map[string]any) types.Condition {
	t.Helper()
	c, err := ParseCondition(raw)
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	return c
}

func TestEngine_EntityTypeLeaf(t *testing.T) {
	cond := mustParse(t, map[string]any{"entity_type": "CCCD", "min_score": 0.85})
	rule := types.Rule{ID: uuid.New(), Action: types.ActionBlock, Conditions: cond}

	entities := []types.Entity{{Type: types.EntityCCCD, Score: 0.9}}
	matches := NewEngine().Evaluate([]types.Rule{rule}, entities, nil)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}

	lowScore := []types.Entity{{Type: types.EntityCCCD, Score: 0.5}}
	matches = NewEngine().Evaluate([]types.Rule{rule}, lowScore, nil)
	if len(matches) != 0 {
		t.Fatalf("got %d matches, want 0 below min_score", len(matches))
	}
}

func TestEngine_EntityTypeSourceFilter(t *testing.T) {
	cond := mustParse(t, map[string]any{"entity_type": "EMAIL", "source": "local_regex"})
	rule := types.Rule{ID: uuid.New(), Conditions: cond}

	nerOnly := []types.Entity{{Type: types.EntityEmail, Source: types.SourceNER}}
	if got := NewEngine().Evaluate([]types.Rule{rule}, nerOnly, nil); len(got) != 0 {
		t.Errorf("got %d matches, want 0 (wrong source)", len(got))
	}

	regex := []types.Entity{{Type: types.EntityEmail, Source: types.SourceLocalRegex}}
	if got := NewEngine().Evaluate([]types.Rule{rule}, regex, nil); len(got) != 1 {
		t.Errorf("got %d matches, want 1", len(got))
	}
}

func TestEngine_SignalEquals(t *testing.T) {
	cond := mustParse(t, map[string]any{"signal": map[string]any{"field": "persona", "equals": "dev"}})
	rule := types.Rule{ID: uuid.New(), Conditions: cond}

	signals := map[string]types.SignalValue{"persona": types.StrVal("dev")}
	if got := NewEngine().Evaluate([]types.Rule{rule}, nil, signals); len(got) != 1 {
		t.Errorf("got %d matches, want 1", len(got))
	}

	signals["persona"] = types.StrVal("office")
	if got := NewEngine().Evaluate([]types.Rule{rule}, nil, signals); len(got) != 0 {
		t.Errorf("got %d matches, want 0", len(got))
	}
}

func TestEngine_SignalDotPath(t *testing.T) {
	cond := mustParse(t, map[string]any{
		"signal": map[string]any{"field": "security.prompt_injection", "equals": true},
	})
	rule := types.Rule{ID: uuid.New(), Conditions: cond}

	signals := map[string]types.SignalValue{
		"security": types.MapVal(map[string]types.SignalValue{
			"prompt_injection": types.BoolVal(true),
		}),
	}
	if got := NewEngine().Evaluate([]types.Rule{rule}, nil, signals); len(got) != 1 {
		t.Errorf("got %d matches, want 1", len(got))
	}
}

func TestEngine_AnyAllNot(t *testing.T) {
	cond := mustParse(t, map[string]any{
		"all": []any{
			map[string]any{"entity_type": "EMAIL"},
			map[string]any{"not": map[string]any{
				"signal": map[string]any{"field": "persona", "equals": "office"},
			}},
		},
	})
	rule := types.Rule{ID: uuid.New(), Conditions: cond}

	entities := []types.Entity{{Type: types.EntityEmail, Score: 0.9}}
	signals := map[string]types.SignalValue{"persona": types.StrVal("dev")}
	if got := NewEngine().Evaluate([]types.Rule{rule}, entities, signals); len(got) != 1 {
		t.Errorf("got %d matches, want 1", len(got))
	}

	signals["persona"] = types.StrVal("office")
	if got := NewEngine().Evaluate([]types.Rule{rule}, entities, signals); len(got) != 0 {
		t.Errorf("got %d matches, want 0 (not office)", len(got))
	}
}

func TestParseCondition_RejectsUnknownNode(t *testing.T) {
	_, err := ParseCondition(map[string]any{"mystery": true})
	if err == nil {
		t.Error("expected RuleMalformed error for unknown node shape")
	}
}

func TestParseCondition_RejectsMissingSignalOperator(t *testing.T) {
	_, err := ParseCondition(map[string]any{"signal": map[string]any{"field": "persona"}})
	if err == nil {
		t.Error("expected RuleMalformed error for signal with no operator")
	}
}
