// Package metrics provides lightweight, lock-minimal performance counters
// for a running gateway instance, adapted from the original proxy's
// metrics.go: sync/atomic counters for hot paths (one increment per scan,
// no lock contention), a mutex-guarded accumulator for latency statistics,
// and a JSON-serializable Snapshot for a status endpoint. The same call
// sites also feed a private prometheus.Registry, so the gateway can be
// scraped the ecosystem way alongside the status JSON.
package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gateway/internal/types"
)

// Metrics holds all runtime counters for a running gateway instance. The
// zero value is valid; prefer New() so the prometheus side is wired too.
type Metrics struct {
	ScansTotal   atomic.Int64
	ScansAllowed atomic.Int64
	ScansMasked  atomic.Int64
	ScansWarned  atomic.Int64
	ScansBlocked atomic.Int64

	InjectionBlocked   atomic.Int64
	InjectionSuspected atomic.Int64

	RulesEvaluated    atomic.Int64
	RuleMatches       atomic.Int64
	MessagesPersisted atomic.Int64

	entityMu     sync.Mutex
	entityCounts map[types.EntityType]int64

	scanMu   sync.Mutex
	scanStat latencyStats

	startTime time.Time

	prom *promCollectors
}

// New returns a Metrics with the start time recorded and its prometheus
// collectors registered on a private registry.
func New() *Metrics {
	return &Metrics{
		startTime:    time.Now(),
		entityCounts: make(map[types.EntityType]int64),
		prom:         newPromCollectors(),
	}
}

// Registry exposes the private prometheus registry for a /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m.prom == nil {
		return prometheus.NewRegistry()
	}
	return m.prom.registry
}

// RecordScan records one completed scan's final action and latency.
func (m *Metrics) RecordScan(action types.RuleAction, d time.Duration) {
	m.ScansTotal.Add(1)
	switch action {
	case types.ActionAllow:
		m.ScansAllowed.Add(1)
	case types.ActionMask:
		m.ScansMasked.Add(1)
	case types.ActionWarn:
		m.ScansWarned.Add(1)
	case types.ActionBlock:
		m.ScansBlocked.Add(1)
	}

	m.scanMu.Lock()
	m.scanStat.record(float64(d.Microseconds()) / 1000.0)
	m.scanMu.Unlock()

	if m.prom != nil {
		m.prom.scansTotal.WithLabelValues(string(action)).Inc()
		m.prom.scanLatency.Observe(d.Seconds())
	}
}

// RecordEntity records one normalized entity finding.
func (m *Metrics) RecordEntity(t types.EntityType) {
	m.entityMu.Lock()
	m.entityCounts[t]++
	m.entityMu.Unlock()

	if m.prom != nil {
		m.prom.entitiesTotal.WithLabelValues(string(t)).Inc()
	}
}

// RecordInjection records one injection-detector verdict.
func (m *Metrics) RecordInjection(blocked, suspected bool) {
	if blocked {
		m.InjectionBlocked.Add(1)
	}
	if suspected {
		m.InjectionSuspected.Add(1)
	}
	if m.prom != nil {
		if blocked {
			m.prom.injectionBlocked.Inc()
		}
		if suspected {
			m.prom.injectionSuspected.Inc()
		}
	}
}

// RecordRuleEval records one rule-engine pass: how many rules were
// evaluated and how many matched.
func (m *Metrics) RecordRuleEval(evaluated, matched int) {
	m.RulesEvaluated.Add(int64(evaluated))
	m.RuleMatches.Add(int64(matched))
	if m.prom != nil {
		m.prom.rulesEvaluated.Add(float64(evaluated))
		m.prom.ruleMatches.Add(float64(matched))
	}
}

// RecordMessagePersisted records one committed append_user_message call.
func (m *Metrics) RecordMessagePersisted() {
	m.MessagesPersisted.Add(1)
	if m.prom != nil {
		m.prom.messagesPersisted.Inc()
	}
}

// Snapshot returns a point-in-time copy of all metrics, safe for JSON encoding.
func (m *Metrics) Snapshot() Snapshot {
	m.scanMu.Lock()
	scanLatency := m.scanStat.snapshot()
	m.scanMu.Unlock()

	m.entityMu.Lock()
	entities := make(map[types.EntityType]int64, len(m.entityCounts))
	for k, v := range m.entityCounts {
		entities[k] = v
	}
	m.entityMu.Unlock()

	return Snapshot{
		Scans: ScanSnapshot{
			Total:   m.ScansTotal.Load(),
			Allowed: m.ScansAllowed.Load(),
			Masked:  m.ScansMasked.Load(),
			Warned:  m.ScansWarned.Load(),
			Blocked: m.ScansBlocked.Load(),
		},
		Injection: InjectionSnapshot{
			Blocked:   m.InjectionBlocked.Load(),
			Suspected: m.InjectionSuspected.Load(),
		},
		Rules: RuleSnapshot{
			Evaluated: m.RulesEvaluated.Load(),
			Matches:   m.RuleMatches.Load(),
		},
		MessagesPersisted: m.MessagesPersisted.Load(),
		EntitiesByType:    entities,
		ScanLatencyMs:     scanLatency,
		UptimeSecs:        time.Since(m.startTime).Seconds(),
	}
}

// --- JSON-serialisable snapshot types ---

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Scans             ScanSnapshot               `json:"scans"`
	Injection         InjectionSnapshot          `json:"injection"`
	Rules             RuleSnapshot               `json:"rules"`
	MessagesPersisted int64                      `json:"messagesPersisted"`
	EntitiesByType    map[types.EntityType]int64 `json:"entitiesByType"`
	ScanLatencyMs     LatencySnapshot            `json:"scanLatencyMs"`
	UptimeSecs        float64                    `json:"uptimeSecs"`
}

// ScanSnapshot holds scan outcome counters.
type ScanSnapshot struct {
	Total   int64 `json:"total"`
	Allowed int64 `json:"allowed"`
	Masked  int64 `json:"masked"`
	Warned  int64 `json:"warned"`
	Blocked int64 `json:"blocked"`
}

// InjectionSnapshot holds injection-detector counters.
type InjectionSnapshot struct {
	Blocked   int64 `json:"blocked"`
	Suspected int64 `json:"suspected"`
}

// RuleSnapshot holds rule-engine counters.
type RuleSnapshot struct {
	Evaluated int64 `json:"evaluated"`
	Matches   int64 `json:"matches"`
}

// LatencySnapshot is a min/mean/max summary for one latency dimension.
type LatencySnapshot struct {
	Count  int64   `json:"count"`
	MinMs  float64 `json:"minMs"`
	MeanMs float64 `json:"meanMs"`
	MaxMs  float64 `json:"maxMs"`
}

// --- internal accumulator ---

type latencyStats struct {
	count int64
	sum   float64
	min   float64
	max   float64
}

func (s *latencyStats) record(ms float64) {
	s.count++
	s.sum += ms
	if s.count == 1 || ms < s.min {
		s.min = ms
	}
	if ms > s.max {
		s.max = ms
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func (s *latencyStats) snapshot() LatencySnapshot {
	if s.count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count:  s.count,
		MinMs:  round2(s.min),
		MeanMs: round2(s.sum / float64(s.count)),
		MaxMs:  round2(s.max),
	}
}

// --- prometheus exposition ---

type promCollectors struct {
	registry *prometheus.Registry

	scansTotal         *prometheus.CounterVec
	scanLatency        prometheus.Histogram
	entitiesTotal      *prometheus.CounterVec
	injectionBlocked   prometheus.Counter
	injectionSuspected prometheus.Counter
	rulesEvaluated     prometheus.Counter
	ruleMatches        prometheus.Counter
	messagesPersisted  prometheus.Counter
}

func newPromCollectors() *promCollectors {
	p := &promCollectors{
		registry: prometheus.NewRegistry(),
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "scans_total",
			Help:      "Total scans by final action.",
		}, []string{"action"}),
		scanLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "scan_latency_seconds",
			Help:      "Scan pipeline latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		entitiesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "entities_total",
			Help:      "Total normalized entity findings by type.",
		}, []string{"type"}),
		injectionBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "injection_blocked_total",
			Help:      "Total messages blocked for prompt injection.",
		}),
		injectionSuspected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "injection_suspected_total",
			Help:      "Total messages flagged as suspected prompt injection.",
		}),
		rulesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "rules_evaluated_total",
			Help:      "Total rule evaluations across all scans.",
		}),
		ruleMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "rule_matches_total",
			Help:      "Total rule matches across all scans.",
		}),
		messagesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "messages_persisted_total",
			Help:      "Total messages committed through the append protocol.",
		}),
	}
	p.registry.MustRegister(
		p.scansTotal, p.scanLatency, p.entitiesTotal, p.injectionBlocked,
		p.injectionSuspected, p.rulesEvaluated, p.ruleMatches, p.messagesPersisted,
	)
	return p
}
