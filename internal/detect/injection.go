package detect

import (
	"regexp"
	"strings"

	"gateway/internal/config"
)

// InjectionVerdict is the outcome of scanning one message for prompt
// injection attempts.
type InjectionVerdict struct {
	Decision        string // "BLOCK" | "REVIEW" | "ALLOW"
	Score           float64
	Reason          string
	PromptInjection bool
}

// InjectionDetector flags prompt-injection attempts by keyword pattern,
// accumulating 0.3 per distinct pattern hit up to a 1.0 cap. It produces a
// signal, never a span — the matched text isn't PII and has nothing to
// mask.
type InjectionDetector struct {
	patterns        []*regexp.Regexp
	blockThreshold  float64
	reviewThreshold float64
}

// NewInjectionDetector builds an InjectionDetector using the thresholds
// from cfg.
func NewInjectionDetector(cfg *config.Config) *InjectionDetector {
	raw := []string{
		`ignore\s+(all\s+)?previous\s+instructions`,
		`reveal\s+(the\s+)?system\s+prompt`,
		`bypass\s+(all\s+)?(policy|policies|guardrails|safety)`,
		`you\s+are\s+dan`,
		`act\s+as\s+an?\s+unrestricted`,
		`print\s+.*(api\s*key|secret|token|env)`,
		`show\s+hidden\s+(rules|policies)`,
	}
	patterns := make([]*regexp.Regexp, len(raw))
	for i, p := range raw {
		patterns[i] = regexp.MustCompile(p)
	}
	return &InjectionDetector{
		patterns:        patterns,
		blockThreshold:  cfg.InjectionBlockThreshold,
		reviewThreshold: cfg.InjectionReviewThreshold,
	}
}

// Scan returns the injection verdict for text.
func (d *InjectionDetector) Scan(text string) InjectionVerdict {
	lower := strings.ToLower(text)

	var score float64
	for _, p := range d.patterns {
		if p.MatchString(lower) {
			score += 0.3
		}
	}
	if score > 1.0 {
		score = 1.0
	}

	switch {
	case score >= d.blockThreshold:
		return InjectionVerdict{
			Decision:        "BLOCK",
			Score:           score,
			Reason:          "high confidence prompt injection",
			PromptInjection: true,
		}
	case score >= d.reviewThreshold:
		return InjectionVerdict{
			Decision:        "REVIEW",
			Score:           score,
			Reason:          "suspicious injection pattern",
			PromptInjection: false,
		}
	default:
		return InjectionVerdict{
			Decision: "ALLOW",
			Score:    0,
			Reason:   "no injection detected",
		}
	}
}
