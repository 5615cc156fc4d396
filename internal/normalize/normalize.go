// Package normalize maps the raw type labels detectors emit (Presidio-style
// NER labels, ad-hoc local-regex names) onto the gateway's closed entity
// taxonomy (types.EntityType), so every downstream stage — merge, rules,
// masking — only ever sees the canonical set.
package normalize

import (
	"strings"

	"gateway/internal/types"
)

// TypeNormalizer rewrites Entity.Type in place on a copy, leaving entities
// whose raw label has no known mapping untouched (unknown labels pass
// through as-is rather than being dropped, so new detector label sets never
// silently lose data).
type TypeNormalizer struct {
	table map[string]types.EntityType
}

// New builds a TypeNormalizer with the built-in label table, grounded on the
// original detector's Presidio/local label map.
func New() *TypeNormalizer {
	return &TypeNormalizer{table: defaultTable()}
}

// WithExtra returns a TypeNormalizer that also recognizes the given extra
// raw-label -> canonical-type mappings, overriding the built-in table entry
// for any label present in both.
func (n *TypeNormalizer) WithExtra(extra map[string]types.EntityType) *TypeNormalizer {
	merged := make(map[string]types.EntityType, len(n.table)+len(extra))
	for k, v := range n.table {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return &TypeNormalizer{table: merged}
}

// Normalize returns a copy of entities with Type rewritten through the
// label table.
func (n *TypeNormalizer) Normalize(entities []types.Entity) []types.Entity {
	out := make([]types.Entity, len(entities))
	for i, e := range entities {
		out[i] = e
		out[i].Type = n.one(e.Type)
	}
	return out
}

func (n *TypeNormalizer) one(raw types.EntityType) types.EntityType {
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return raw
	}
	if mapped, ok := n.table[key]; ok {
		return mapped
	}
	return raw
}

func defaultTable() map[string]types.EntityType {
	return map[string]types.EntityType{
		// NER / Presidio labels.
		"EMAIL_ADDRESS": types.EntityEmail,
		"PHONE_NUMBER":  types.EntityPhone,
		"CREDIT_CARD":   types.EntityCreditCard,
		"US_SSN":        types.EntitySSN,
		"URL":           types.EntityURL,
		"IP_ADDRESS":    types.EntityIP,
		"DOMAIN_NAME":   types.EntityDomain,

		// Canonical names map to themselves so a detector that already
		// emits canonical labels is a no-op through this table.
		"EMAIL":       types.EntityEmail,
		"PHONE":       types.EntityPhone,
		"CCCD":        types.EntityCCCD,
		"TAX_ID":      types.EntityTaxID,
		"API_SECRET":  types.EntityAPISecret,
		"CREDIT_CARD_LOCAL": types.EntityCreditCard,
		"SSN":         types.EntitySSN,
		"IP":          types.EntityIP,
		"DOMAIN":      types.EntityDomain,
	}
}
