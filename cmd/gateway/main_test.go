package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestScanCmd_CleanTextAllows(t *testing.T) {
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"scan", "hello, how are you?"})

	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
}

func TestSeedRulesCmd_LoadsSeedFile(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.yaml")
	if err := os.WriteFile(seedPath, []byte(`
rules:
  - key: block-secret
    name: Block secrets
    action: block
    priority: 100
    conditions:
      entity_type: API_SECRET
      min_score: 0.9
`), 0o600); err != nil {
		t.Fatal(err)
	}

	configPath := filepath.Join(dir, "gateway-config.json")
	cfgJSON, err := json.Marshal(map[string]any{"rulesSeedPath": seedPath})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(configPath, cfgJSON, 0o600); err != nil {
		t.Fatal(err)
	}

	root := newRootCmd()
	root.SetArgs([]string{"--config", configPath, "seed-rules"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
}

func TestRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "scan", "seed-rules"} {
		if !names[want] {
			t.Errorf("expected subcommand %q", want)
		}
	}
}
