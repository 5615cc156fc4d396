// Package scan orchestrates one full policy pass over a message: detector
// fan-out, type normalization, entity merge, context/security signals,
// rule evaluation, and decision resolution. Grounded on the original
// service's ScanEngineLocal.scan, with the detector fan-out promoted from
// sequential calls to a concurrent errgroup so the NER HTTP round-trip
// doesn't serialize behind the local regex pass.
package scan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	gocontext "gateway/internal/context"
	"gateway/internal/decision"
	"gateway/internal/detect"
	"gateway/internal/merge"
	"gateway/internal/metrics"
	"gateway/internal/normalize"
	"gateway/internal/rules"
	"gateway/internal/types"
)

// Engine runs the full scan pipeline for one message.
type Engine struct {
	regex      *detect.RegexDetector
	ner        *detect.NerDetector
	injection  *detect.InjectionDetector
	contextCtx *gocontext.Scorer
	normalizer *normalize.TypeNormalizer
	merger     *merge.Merger
	ruleStore  *rules.Store
	ruleEngine *rules.Engine
	resolver   *decision.Resolver
	metrics    *metrics.Metrics
}

// New builds a scan Engine from its component stages. metricsCollector may
// be nil, in which case the engine simply does not record metrics.
func New(
	regex *detect.RegexDetector,
	ner *detect.NerDetector,
	injection *detect.InjectionDetector,
	contextScorer *gocontext.Scorer,
	normalizer *normalize.TypeNormalizer,
	merger *merge.Merger,
	ruleStore *rules.Store,
	ruleEngine *rules.Engine,
	resolver *decision.Resolver,
	metricsCollector *metrics.Metrics,
) *Engine {
	return &Engine{
		regex:      regex,
		ner:        ner,
		injection:  injection,
		contextCtx: contextScorer,
		normalizer: normalizer,
		merger:     merger,
		ruleStore:  ruleStore,
		ruleEngine: ruleEngine,
		resolver:   resolver,
		metrics:    metricsCollector,
	}
}

// Scan runs the full pipeline for text, scoped to tenantID's rules (nil for
// no tenant).
func (e *Engine) Scan(ctx context.Context, text string, tenantID *uuid.UUID) (types.ScanResult, error) {
	start := time.Now()

	var regexEntities []types.Entity
	var nerEntities []types.Entity

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		regexEntities = e.regex.Scan(text)
		return nil
	})

	if e.ner != nil && e.ner.Enabled() {
		g.Go(func() error {
			found, err := e.ner.Scan(gctx, text)
			if err != nil {
				// NER is best-effort: an analyzer outage degrades to
				// regex-only detection rather than failing the whole scan.
				return nil
			}
			nerEntities = found
			return nil
		})
	}

	var ctxSignals gocontext.Signals
	if e.contextCtx != nil {
		g.Go(func() error {
			ctxSignals = e.contextCtx.Score(text)
			return nil
		})
	}

	var injectionVerdict detect.InjectionVerdict
	g.Go(func() error {
		injectionVerdict = e.injection.Scan(text)
		return nil
	})

	if err := g.Wait(); err != nil {
		return types.ScanResult{}, err
	}

	all := append(append([]types.Entity{}, regexEntities...), nerEntities...)
	normalized := e.normalizer.Normalize(all)
	entities := e.merger.Merge(normalized)

	security := types.SecuritySignal{
		Decision:                 injectionVerdict.Decision,
		Score:                    injectionVerdict.Score,
		Reason:                   injectionVerdict.Reason,
		PromptInjection:          injectionVerdict.PromptInjection,
		PromptInjectionBlock:     injectionVerdict.Decision == "BLOCK",
		PromptInjectionSuspected: injectionVerdict.Decision == "REVIEW" || injectionVerdict.Decision == "BLOCK",
	}

	var personaPtr *string
	if ctxSignals.Persona != "" {
		p := ctxSignals.Persona
		personaPtr = &p
	}
	signals := types.Signals{
		Persona:         personaPtr,
		ContextKeywords: ctxSignals.KeywordHits,
		RiskBoost:       ctxSignals.RiskBoost,
		Security:        security,
	}
	signalMap := signals.ToMap()

	ruleList, err := e.ruleStore.Load(ctx, tenantID)
	if err != nil {
		return types.ScanResult{}, err
	}

	matches := e.ruleEngine.Evaluate(ruleList, entities, signalMap)
	result := e.resolver.Resolve(matches)

	riskScore := riskScoreOf(entities, ctxSignals.RiskBoost)
	elapsed := time.Since(start)
	latencyMS := elapsed.Milliseconds()

	if e.metrics != nil {
		e.metrics.RecordScan(result.FinalAction, elapsed)
		e.metrics.RecordRuleEval(len(ruleList), len(matches))
		e.metrics.RecordInjection(security.PromptInjectionBlock, security.PromptInjectionSuspected)
		for _, ent := range entities {
			e.metrics.RecordEntity(ent.Type)
		}
	}

	return types.ScanResult{
		Entities:    entities,
		Signals:     signals,
		Matches:     matches,
		FinalAction: result.FinalAction,
		LatencyMS:   latencyMS,
		RiskScore:   riskScore,
		Ambiguous:   false,
	}, nil
}

func riskScoreOf(entities []types.Entity, riskBoost float64) float64 {
	var maxEntity float64
	for _, e := range entities {
		if e.Score > maxEntity {
			maxEntity = e.Score
		}
	}
	score := maxEntity + riskBoost
	if score > 1.0 {
		score = 1.0
	}
	return score
}
