// Package types holds the data model shared by every pipeline stage:
// entities, signals, rules, and the scan/decision results that thread them
// together. Keeping one vocabulary here means detectors, the rule engine,
// and the appender never need to reflect on each other's internal shapes.
package types

// EntityType is the canonical taxonomy a detector's output is normalized
// into before merging. The set is closed for DSL matching purposes (§6).
type EntityType string

// Canonical entity types (spec §6).
const (
	EntityEmail      EntityType = "EMAIL"
	EntityPhone      EntityType = "PHONE"
	EntityCCCD       EntityType = "CCCD"
	EntityTaxID      EntityType = "TAX_ID"
	EntityAPISecret  EntityType = "API_SECRET"
	EntityCreditCard EntityType = "CREDIT_CARD"
	EntitySSN        EntityType = "SSN"
	EntityIP         EntityType = "IP"
	EntityURL        EntityType = "URL"
	EntityDomain     EntityType = "DOMAIN"
)

// EntitySource identifies which detector produced an Entity.
type EntitySource string

// Known entity sources.
const (
	SourceLocalRegex EntitySource = "local_regex"
	SourceNER        EntitySource = "ner"
)

// Entity is a single located finding in user text. Entities are immutable
// once a detector returns them; TypeNormalizer and EntityMerger operate by
// producing new slices, never mutating a caller's Entity in place.
//
// Start and End are half-open byte offsets into the original UTF-8 text:
// text[Start:End] recovers the matched slice. This is the same convention
// Go's regexp package uses for match indices, so detectors need no offset
// translation.
type Entity struct {
	Type     EntityType        `json:"type"`
	Start    int               `json:"start"`
	End      int               `json:"end"`
	Score    float64           `json:"score"`
	Source   EntitySource      `json:"source"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Len returns the byte length of the matched span.
func (e Entity) Len() int {
	if e.End <= e.Start {
		return 0
	}
	return e.End - e.Start
}
