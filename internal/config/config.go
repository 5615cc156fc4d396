// Package config loads and holds all gateway configuration.
// Settings are layered: defaults → gateway-config.json → environment
// variables (env vars win), the same layering the teacher proxy uses.
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds the full gateway configuration.
type Config struct {
	ManagementPort  int    `json:"managementPort"`
	ManagementToken string `json:"managementToken"`
	LogLevel        string `json:"logLevel"`

	// Detection
	NEREndpoint              string   `json:"nerEndpoint"`
	NERModel                 string   `json:"nerModel"`
	NERMinScore              float64  `json:"nerMinScore"`
	NEREnabled               bool     `json:"nerEnabled"`
	NERNoisyTypes            []string `json:"nerNoisyTypes"` // analyzer-reported types dropped before normalization
	InjectionBlockThreshold  float64  `json:"injectionBlockThreshold"`
	InjectionReviewThreshold float64  `json:"injectionReviewThreshold"`
	DetectorTimeoutMS        int      `json:"detectorTimeoutMs"`

	// Context scoring
	ContextScorerConfigPath string `json:"contextScorerConfigPath"`

	// Rules
	RulesSeedPath     string `json:"rulesSeedPath"`
	RuleCacheFile     string `json:"ruleCacheFile"` // bbolt path; empty = in-memory only
	RuleCacheCapacity int    `json:"ruleCacheCapacity"`

	// Merge
	MergeOverlapThreshold float64  `json:"mergeOverlapThreshold"`
	SourcePreferenceOrder []string `json:"sourcePreferenceOrder"`

	// Persistence
	DatabaseDSN string `json:"databaseDsn"`

	// Masking: when true, masked messages also null out the original
	// content, matching the stricter of the two tenant policies discussed
	// in spec §9's Open Questions. Default false: keep original, add mask.
	NullContentOnMask bool `json:"nullContentOnMask"`
}

// Load returns config with defaults overridden by gateway-config.json and
// env vars.
func Load() *Config {
	cfg := Defaults()
	loadFile(cfg, "gateway-config.json")
	loadEnv(cfg)
	return cfg
}

// LoadFrom merges path's JSON over cfg, then re-applies env vars so env
// still wins over an explicitly named config file — used by the CLI's
// --config flag.
func LoadFrom(cfg *Config, path string) {
	loadFile(cfg, path)
	loadEnv(cfg)
}

// Defaults returns the built-in configuration defaults.
func Defaults() *Config {
	return &Config{
		ManagementPort:           8090,
		LogLevel:                 "info",
		NEREndpoint:              "http://localhost:8901",
		NERModel:                 "en_core_web_sm",
		NERMinScore:              0.5,
		NEREnabled:               false,
		NERNoisyTypes:            []string{"DATE_TIME", "URL"},
		InjectionBlockThreshold:  0.6,
		InjectionReviewThreshold: 0.3,
		DetectorTimeoutMS:        2000,
		ContextScorerConfigPath:  "config/context-personas.yaml",
		RulesSeedPath:            "config/seed-rules.yaml",
		RuleCacheFile:            "rule-cache.db",
		RuleCacheCapacity:        10_000,
		MergeOverlapThreshold:    0.80,
		SourcePreferenceOrder:    []string{"local_regex", "ner"},
		NullContentOnMask:        false,
	}
}

func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a controlled config file path, not user input
	if err != nil {
		return // file is optional
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("[CONFIG] Warning: could not parse %s: %v", path, err)
	} else {
		log.Printf("[CONFIG] Loaded %s", path)
	}
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("MANAGEMENT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ManagementPort = n
		}
	}
	if v := os.Getenv("MANAGEMENT_TOKEN"); v != "" {
		cfg.ManagementToken = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("NER_ENDPOINT"); v != "" {
		cfg.NEREndpoint = v
	}
	if v := os.Getenv("NER_MODEL"); v != "" {
		cfg.NERModel = v
	}
	if v := os.Getenv("NER_MIN_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.NERMinScore = f
		}
	}
	if v := os.Getenv("NER_ENABLED"); v != "" {
		cfg.NEREnabled = v == "true"
	}
	if v := os.Getenv("NER_NOISY_TYPES"); v != "" {
		cfg.NERNoisyTypes = strings.Split(v, ",")
	}
	if v := os.Getenv("RULES_SEED_PATH"); v != "" {
		cfg.RulesSeedPath = v
	}
	if v := os.Getenv("RULE_CACHE_FILE"); v != "" {
		cfg.RuleCacheFile = v
	}
	if v := os.Getenv("RULE_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RuleCacheCapacity = n
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("NULL_CONTENT_ON_MASK"); v != "" {
		cfg.NullContentOnMask = v == "true"
	}
}
