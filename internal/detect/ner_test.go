package detect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gateway/internal/config"
)

func newTestNerDetector(t *testing.T, results []nerSpan) *NerDetector {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(nerResponse{Results: results})
	}))
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.NEREndpoint = srv.URL
	cfg.NERMinScore = 0.5
	return NewNerDetector(cfg)
}

func TestNerDetector_DropsNoisyTypesByDefault(t *testing.T) {
	d := newTestNerDetector(t, []nerSpan{
		{EntityType: "PERSON", Start: 0, End: 4, Score: 0.9},
		{EntityType: "DATE_TIME", Start: 5, End: 9, Score: 0.9},
		{EntityType: "URL", Start: 10, End: 14, Score: 0.9},
	})

	out, err := d.Scan(context.Background(), "John 2024 http")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || string(out[0].Type) != "PERSON" {
		t.Fatalf("got %v, want only the PERSON entity to survive the noisy-type filter", out)
	}
}

func TestNerDetector_DropsBelowMinScore(t *testing.T) {
	d := newTestNerDetector(t, []nerSpan{
		{EntityType: "PERSON", Start: 0, End: 4, Score: 0.1},
	})

	out, err := d.Scan(context.Background(), "John")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("got %d entities, want 0 below min_score", len(out))
	}
}

func TestNerDetector_NoisyTypesConfigurable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(nerResponse{Results: []nerSpan{
			{EntityType: "ORGANIZATION", Start: 0, End: 5, Score: 0.9},
		}})
	}))
	defer srv.Close()

	cfg := config.Defaults()
	cfg.NEREndpoint = srv.URL
	cfg.NERMinScore = 0.5
	cfg.NERNoisyTypes = []string{"ORGANIZATION"}
	d := NewNerDetector(cfg)

	out, err := d.Scan(context.Background(), "Acme!")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("got %d entities, want ORGANIZATION dropped per configured noisy types", len(out))
	}
}
