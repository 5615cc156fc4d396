package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gateway/internal/config"
	"gateway/internal/types"
)

// nerRequest is the body sent to the external NER analyzer.
type nerRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// nerSpan is one entity as reported by the analyzer, before normalization.
type nerSpan struct {
	EntityType string  `json:"entity_type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float64 `json:"score"`
}

type nerResponse struct {
	Results []nerSpan `json:"results"`
}

// NerDetector calls an external NER analyzer (e.g. Presidio) over HTTP for
// free-text entities a local regex cannot describe (names, organizations).
// It is disabled by default (config.NEREnabled); callers should check
// Enabled before including it in a detector fan-out.
type NerDetector struct {
	endpoint  string
	model     string
	minScore  float64
	enabled   bool
	noisy     map[string]bool
	client    *http.Client
}

// NewNerDetector builds a NerDetector from cfg.
func NewNerDetector(cfg *config.Config) *NerDetector {
	noisy := make(map[string]bool, len(cfg.NERNoisyTypes))
	for _, t := range cfg.NERNoisyTypes {
		noisy[t] = true
	}
	return &NerDetector{
		endpoint: cfg.NEREndpoint,
		model:    cfg.NERModel,
		minScore: cfg.NERMinScore,
		enabled:  cfg.NEREnabled,
		noisy:    noisy,
		client:   &http.Client{Timeout: time.Duration(cfg.DetectorTimeoutMS) * time.Millisecond},
	}
}

// Enabled reports whether the NER detector should be invoked.
func (d *NerDetector) Enabled() bool { return d.enabled }

// Scan sends text to the analyzer and returns entities scoring at or above
// minScore.
func (d *NerDetector) Scan(ctx context.Context, text string) ([]types.Entity, error) {
	reqBody, err := json.Marshal(nerRequest{Text: text, Model: d.model})
	if err != nil {
		return nil, fmt.Errorf("encode ner request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint+"/analyze", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create ner request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on HTTP response body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ner response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ner analyzer returned %d: %s", resp.StatusCode, body)
	}

	var parsed nerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse ner response: %w", err)
	}

	out := make([]types.Entity, 0, len(parsed.Results))
	for _, s := range parsed.Results {
		if s.Score < d.minScore {
			continue
		}
		if d.noisy[s.EntityType] {
			continue
		}
		var sub string
		if s.Start >= 0 && s.End <= len(text) && s.Start <= s.End {
			sub = text[s.Start:s.End]
		}
		out = append(out, types.Entity{
			Type:   types.EntityType(s.EntityType),
			Start:  s.Start,
			End:    s.End,
			Score:  s.Score,
			Source: types.SourceNER,
			Text:   sub,
		})
	}
	return out, nil
}
