package normalize

import (
	"testing"

	"gateway/internal/types"
)

func TestNormalize_MapsKnownLabels(t *testing.T) {
	n := New()
	in := []types.Entity{
		{Type: "EMAIL_ADDRESS", Start: 0, End: 5},
		{Type: "PHONE_NUMBER", Start: 6, End: 10},
		{Type: "US_SSN", Start: 11, End: 20},
	}
	out := n.Normalize(in)

	want := []types.EntityType{types.EntityEmail, types.EntityPhone, types.EntitySSN}
	for i, e := range out {
		if e.Type != want[i] {
			t.Errorf("entity %d: got %s, want %s", i, e.Type, want[i])
		}
	}
}

func TestNormalize_UnknownLabelPassesThrough(t *testing.T) {
	n := New()
	out := n.Normalize([]types.Entity{{Type: "SOMETHING_NEW"}})
	if out[0].Type != "SOMETHING_NEW" {
		t.Errorf("got %s, want unchanged SOMETHING_NEW", out[0].Type)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	n := New()
	in := []types.Entity{{Type: "EMAIL_ADDRESS"}}
	_ = n.Normalize(in)
	if in[0].Type != "EMAIL_ADDRESS" {
		t.Error("Normalize must not mutate the input slice's entities")
	}
}

func TestWithExtra_OverridesBuiltIn(t *testing.T) {
	n := New().WithExtra(map[string]types.EntityType{"PHONE_NUMBER": types.EntityCCCD})
	out := n.Normalize([]types.Entity{{Type: "PHONE_NUMBER"}})
	if out[0].Type != types.EntityCCCD {
		t.Errorf("got %s, want override CCCD", out[0].Type)
	}
}

func TestNormalize_EmptyLabel(t *testing.T) {
	n := New()
	out := n.Normalize([]types.Entity{{Type: ""}})
	if out[0].Type != "" {
		t.Errorf("empty label should pass through unchanged, got %s", out[0].Type)
	}
}
