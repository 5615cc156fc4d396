// Package context scores a message's surrounding persona context (developer
// chat, office chat, ...) from a keyword list loaded from YAML. It never
// produces spans — only signals that feed the rule DSL and the risk score,
// adapted from the original service's ContextScorer.
package context

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Signals is the context-scoring output for one message.
type Signals struct {
	Persona     string
	KeywordHits []string
	RiskBoost   float64
}

type personaFile struct {
	Personas map[string]struct {
		Keywords []string `yaml:"keywords"`
		// RiskBoost overrides the built-in boost for this persona when set.
		RiskBoost *float64 `yaml:"risk_boost"`
	} `yaml:"personas"`
}

type persona struct {
	keywords  []string
	riskBoost float64
}

// Scorer scores message text against a set of personas loaded from a YAML
// config file.
type Scorer struct {
	personas map[string]persona
	order    []string // persona names, sorted, for deterministic tie-breaking
}

// defaultRiskBoost returns the built-in boost for well-known persona names,
// matching the original scorer's MVP constants. Personas outside this set
// default to 0 unless the YAML file overrides risk_boost explicitly.
func defaultRiskBoost(name string) float64 {
	switch name {
	case "dev":
		return 0.15
	case "office":
		return 0.10
	default:
		return 0
	}
}

// Load reads and parses a persona YAML file of the shape:
//
//	personas:
//	  dev:
//	    keywords: ["api key", "stack trace", "kubectl"]
//	  office:
//	    keywords: ["invoice", "payroll", "budget"]
func Load(path string) (*Scorer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a controlled config file path
	if err != nil {
		return nil, fmt.Errorf("read persona config %s: %w", path, err)
	}

	var parsed personaFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse persona config %s: %w", path, err)
	}

	personas := make(map[string]persona, len(parsed.Personas))
	for name, cfg := range parsed.Personas {
		kws := make([]string, len(cfg.Keywords))
		for i, kw := range cfg.Keywords {
			kws[i] = strings.ToLower(kw)
		}
		boost := defaultRiskBoost(name)
		if cfg.RiskBoost != nil {
			boost = *cfg.RiskBoost
		}
		personas[name] = persona{keywords: kws, riskBoost: boost}
	}

	order := make([]string, 0, len(personas))
	for name := range personas {
		order = append(order, name)
	}
	sort.Strings(order)

	return &Scorer{personas: personas, order: order}, nil
}

// Score returns the best-matching persona's signals for text: the persona
// with the most keyword hits wins; ties keep whichever persona was found
// first during iteration.
func (s *Scorer) Score(text string) Signals {
	lower := strings.ToLower(text)

	var bestPersona string
	var bestHits []string

	for _, name := range s.order {
		p := s.personas[name]
		var hits []string
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) > len(bestHits) {
			bestPersona = name
			bestHits = hits
		}
	}

	if len(bestHits) > 10 {
		bestHits = bestHits[:10]
	}

	var boost float64
	if bestPersona != "" {
		boost = s.personas[bestPersona].riskBoost
	}

	return Signals{
		Persona:     bestPersona,
		KeywordHits: bestHits,
		RiskBoost:   boost,
	}
}
