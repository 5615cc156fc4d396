// Package mask splices entity placeholders into message text, grounded on
// the original service's MaskService.
package mask

import (
	"fmt"
	"sort"

	"gateway/internal/apperr"
	"gateway/internal/types"
)

// Service replaces each entity's span with a "[TYPE]" placeholder.
type Service struct{}

// New builds a Service.
func New() *Service {
	return &Service{}
}

// Mask returns text with every entity span replaced by "[TYPE]", applied in
// start-descending order so earlier replacements never shift the byte
// offsets of spans still to be applied. Cross-type collisions — e.g. a
// 10-digit phone number also matching the TAX_ID pattern — are resolved by
// keeping the higher-scoring entity before masking runs; EntityMerger only
// dedupes same-type spans (spec §4.6), so this is the first point such a
// collision can be caught. Any overlap surviving that resolution is rejected
// rather than silently producing corrupted output.
func (s *Service) Mask(text string, entities []types.Entity) (string, error) {
	if len(entities) == 0 {
		return text, nil
	}

	resolved := resolveOverlaps(entities)

	sorted := make([]types.Entity, len(resolved))
	copy(sorted, resolved)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start > sorted[j].Start
	})

	if err := assertNoOverlap(sorted); err != nil {
		return "", err
	}

	masked := text
	for _, e := range sorted {
		if e.Start < 0 || e.End > len(masked) || e.Start > e.End {
			return "", apperr.Internal(fmt.Sprintf("entity span [%d:%d] out of bounds for text of length %d", e.Start, e.End, len(masked)))
		}
		label := "[" + string(e.Type) + "]"
		masked = masked[:e.Start] + label + masked[e.End:]
	}

	return masked, nil
}

// resolveOverlaps drops the lower-scoring entity whenever two spans of
// different types overlap, keeping only the best candidate per overlapping
// region. Same-type overlaps are EntityMerger's responsibility and should
// never reach here.
func resolveOverlaps(entities []types.Entity) []types.Entity {
	items := make([]types.Entity, len(entities))
	copy(items, entities)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Score > b.Score
	})

	out := make([]types.Entity, 0, len(items))
	for _, e := range items {
		if len(out) > 0 {
			last := out[len(out)-1]
			if e.Start < last.End {
				if e.Score > last.Score {
					out[len(out)-1] = e
				}
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// assertNoOverlap reports an error if any two entities in start-descending
// order overlap. sortedDesc must already be sorted by Start descending.
func assertNoOverlap(sortedDesc []types.Entity) error {
	for i := 1; i < len(sortedDesc); i++ {
		prev := sortedDesc[i-1] // later in text (higher start)
		cur := sortedDesc[i]
		if cur.End > prev.Start {
			return apperr.Internal(fmt.Sprintf(
				"overlapping entity spans [%d:%d] and [%d:%d] reached MaskService unmerged",
				cur.Start, cur.End, prev.Start, prev.End))
		}
	}
	return nil
}
