package main

import (
	"gateway/internal/config"
	gocontext "gateway/internal/context"
	"gateway/internal/decision"
	"gateway/internal/detect"
	"gateway/internal/logger"
	"gateway/internal/mask"
	"gateway/internal/merge"
	"gateway/internal/metrics"
	"gateway/internal/normalize"
	"gateway/internal/rules"
	"gateway/internal/scan"
)

// components bundles every wired dependency a gateway process needs,
// assembled once from cfg so the serve, scan, and seed-rules commands all
// build the same pipeline rather than each hand-rolling their own.
type components struct {
	cfg       *config.Config
	log       *logger.Logger
	metrics   *metrics.Metrics
	ruleStore *rules.Store
	seeder    *rules.Seeder
	engine    *scan.Engine
	masker    *mask.Service
}

func buildComponents(cfg *config.Config) (*components, error) {
	log := logger.New("GATEWAY", cfg.LogLevel)
	m := metrics.New()

	ircache, err := rules.NewIRCache(cfg.RuleCacheFile, cfg.RuleCacheCapacity, log.Named("rules"))
	if err != nil {
		return nil, err
	}
	repo := rules.NewMemoryRepository()
	ruleStore := rules.NewStore(repo, ircache, log.Named("rules"))
	seeder := rules.NewSeeder(ruleStore)

	var scorer *gocontext.Scorer
	if cfg.ContextScorerConfigPath != "" {
		scorer, err = gocontext.Load(cfg.ContextScorerConfigPath)
		if err != nil {
			log.Warnf("context_load", "could not load %s: %v (continuing without persona scoring)", cfg.ContextScorerConfigPath, err)
			scorer = nil
		}
	}

	engine := scan.New(
		detect.NewRegexDetector(),
		detect.NewNerDetector(cfg),
		detect.NewInjectionDetector(cfg),
		scorer,
		normalize.New(),
		merge.New(merge.Config{
			OverlapThreshold:  cfg.MergeOverlapThreshold,
			PreferSourceOrder: cfg.SourcePreferenceOrder,
		}),
		ruleStore,
		rules.NewEngine(),
		decision.New(),
		m,
	)

	return &components{
		cfg:       cfg,
		log:       log,
		metrics:   m,
		ruleStore: ruleStore,
		seeder:    seeder,
		engine:    engine,
		masker:    mask.New(),
	}, nil
}
