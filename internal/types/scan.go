package types

// ScanResult is the ScanEngine's output (spec §3). Ambiguous is reserved —
// always false in this version (spec §9) — pending a future verification
// stage that cross-checks rag_mode=verify rules against retrieved evidence.
type ScanResult struct {
	Entities    []Entity
	Signals     Signals
	Matches     []RuleMatch
	FinalAction RuleAction
	LatencyMS   int64
	RiskScore   float64
	Ambiguous   bool
}
