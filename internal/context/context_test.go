package context

import (
	"os"
	"path/filepath"
	"testing"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "personas.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScore_PicksPersonaWithMostHits(t *testing.T) {
	path := writeYAML(t, `
personas:
  dev:
    keywords: ["kubectl", "stack trace", "api key"]
  office:
    keywords: ["invoice", "payroll"]
`)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	sig := s.Score("please check the stack trace and the api key rotation via kubectl")
	if sig.Persona != "dev" {
		t.Errorf("got persona %s, want dev", sig.Persona)
	}
	if len(sig.KeywordHits) != 3 {
		t.Errorf("got %d hits, want 3", len(sig.KeywordHits))
	}
	if sig.RiskBoost != 0.15 {
		t.Errorf("got risk boost %f, want 0.15", sig.RiskBoost)
	}
}

func TestScore_NoMatchReturnsEmptyPersona(t *testing.T) {
	path := writeYAML(t, `
personas:
  dev:
    keywords: ["kubectl"]
`)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	sig := s.Score("just chatting about lunch")
	if sig.Persona != "" {
		t.Errorf("got persona %s, want empty", sig.Persona)
	}
	if sig.RiskBoost != 0 {
		t.Errorf("got risk boost %f, want 0", sig.RiskBoost)
	}
}

func TestScore_RespectsYAMLRiskBoostOverride(t *testing.T) {
	path := writeYAML(t, `
personas:
  finance:
    keywords: ["wire transfer"]
    risk_boost: 0.42
`)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	sig := s.Score("please process the wire transfer today")
	if sig.RiskBoost != 0.42 {
		t.Errorf("got risk boost %f, want 0.42", sig.RiskBoost)
	}
}

func TestScore_CapsHitsAtTen(t *testing.T) {
	path := writeYAML(t, `
personas:
  dev:
    keywords: ["a1","a2","a3","a4","a5","a6","a7","a8","a9","a10","a11","a12"]
`)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	sig := s.Score("a1 a2 a3 a4 a5 a6 a7 a8 a9 a10 a11 a12")
	if len(sig.KeywordHits) != 10 {
		t.Errorf("got %d hits, want capped at 10", len(sig.KeywordHits))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
