package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleSeedYAML = `
defaults:
  scope: chat
  severity: medium
  priority: 0
  enabled: true

rules:
  - key: block-api-secret
    name: Block API secrets
    action: block
    priority: 100
    conditions:
      entity_type: API_SECRET
      min_score: 0.9
  - key: mask-email-dev
    name: Mask emails for dev persona
    action: mask
    priority: 10
    conditions:
      all:
        - entity_type: EMAIL
        - signal:
            field: persona
            equals: dev
`

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed-rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSeeder_SeedGlobal(t *testing.T) {
	repo := NewMemoryRepository()
	store := NewStore(repo, nil, nil)
	seeder := NewSeeder(store)
	ctx := context.Background()

	path := writeSeedFile(t, sampleSeedYAML)
	n, err := seeder.SeedGlobal(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("got %d rules processed, want 2", n)
	}

	rules, err := store.Load(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules loaded, want 2", len(rules))
	}
	if rules[0].StableKey != "block-api-secret" {
		t.Errorf("got first rule %s, want block-api-secret (priority DESC)", rules[0].StableKey)
	}
}

func TestSeeder_Idempotent(t *testing.T) {
	repo := NewMemoryRepository()
	store := NewStore(repo, nil, nil)
	seeder := NewSeeder(store)
	ctx := context.Background()

	path := writeSeedFile(t, sampleSeedYAML)
	if _, err := seeder.SeedGlobal(ctx, path); err != nil {
		t.Fatal(err)
	}
	if _, err := seeder.SeedGlobal(ctx, path); err != nil {
		t.Fatal(err)
	}

	rules, _ := store.Load(ctx, nil)
	if len(rules) != 2 {
		t.Fatalf("got %d rules after re-seeding, want 2 (idempotent)", len(rules))
	}
}

func TestSeeder_RejectsMalformedConditions(t *testing.T) {
	repo := NewMemoryRepository()
	store := NewStore(repo, nil, nil)
	seeder := NewSeeder(store)

	path := writeSeedFile(t, `
rules:
  - key: bad
    name: Bad rule
    action: block
    conditions:
      mystery: true
`)
	_, err := seeder.SeedGlobal(context.Background(), path)
	if err == nil {
		t.Error("expected error for malformed conditions")
	}
}

func TestSeeder_RejectsEmptyFile(t *testing.T) {
	repo := NewMemoryRepository()
	store := NewStore(repo, nil, nil)
	seeder := NewSeeder(store)

	path := writeSeedFile(t, "rules: []\n")
	_, err := seeder.SeedGlobal(context.Background(), path)
	if err == nil {
		t.Error("expected error for empty rule list")
	}
}
