package mask

import (
	"testing"

	"gateway/internal/types"
)

func TestMask_NoEntities(t *testing.T) {
	got, err := New().Mask("hello world", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestMask_SingleEntity(t *testing.T) {
	text := "email me at jane@example.com thanks"
	entities := []types.Entity{{Type: types.EntityEmail, Start: 12, End: 29}}
	got, err := New().Mask(text, entities)
	if err != nil {
		t.Fatal(err)
	}
	want := "email me at [EMAIL] thanks"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMask_MultipleEntitiesRightToLeft(t *testing.T) {
	text := "call 0912345678 or email a@b.com"
	entities := []types.Entity{
		{Type: types.EntityPhone, Start: 5, End: 16},
		{Type: types.EntityEmail, Start: 26, End: 33},
	}
	got, err := New().Mask(text, entities)
	if err != nil {
		t.Fatal(err)
	}
	want := "call [PHONE] or email [EMAIL]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMask_CrossTypeOverlapKeepsHigherScore(t *testing.T) {
	text := "0123456789abcdef"
	entities := []types.Entity{
		{Type: types.EntityEmail, Start: 0, End: 10, Score: 0.6},
		{Type: types.EntityPhone, Start: 5, End: 12, Score: 0.9},
	}
	got, err := New().Mask(text, entities)
	if err != nil {
		t.Fatal(err)
	}
	want := "[PHONE]abcdef"
	if got != want {
		t.Errorf("got %q, want %q (higher-scoring PHONE wins the collision)", got, want)
	}
}

func TestMask_PhoneAndTaxIDSameSpanResolvedBeforeMasking(t *testing.T) {
	// A 10-digit phone number also matches the TAX_ID regex; the two
	// detectors report the same span under different types. The merger only
	// dedupes same-type spans (spec §4.6), so Mask must resolve this itself.
	text := "Contact: jane@example.com, phone 0912345678"
	entities := []types.Entity{
		{Type: types.EntityEmail, Start: 9, End: 26, Score: 0.95},
		{Type: types.EntityPhone, Start: 34, End: 44, Score: 0.70},
		{Type: types.EntityTaxID, Start: 34, End: 44, Score: 0.65},
	}
	got, err := New().Mask(text, entities)
	if err != nil {
		t.Fatal(err)
	}
	want := "Contact: [EMAIL], phone [PHONE]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMask_Idempotent(t *testing.T) {
	text := "contact jane@example.com now"
	entities := []types.Entity{{Type: types.EntityEmail, Start: 8, End: 24}}
	once, err := New().Mask(text, entities)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := New().Mask(once, nil)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Error("masking with no further entities should be a no-op")
	}
}
