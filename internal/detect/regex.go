// Package detect holds the gateway's entity and signal detectors: a local
// regex detector for structured PII, an HTTP-backed NER detector for free
// text names/organizations, and a prompt-injection pattern detector. Each
// detector is independent and side-effect free, so scan.Engine can fan them
// out concurrently and merge their output.
package detect

import (
	"regexp"
	"strings"

	"gateway/internal/types"
)

// pattern pairs a compiled regex with the canonical type it produces and a
// base confidence score, the same pairing the teacher's anonymizer patterns
// use.
type pattern struct {
	re         *regexp.Regexp
	entityType types.EntityType
	baseScore  float64
}

// RegexDetector finds structured PII (emails, phone numbers, national ID
// numbers, tax codes, API secrets) by regular expression, adjusting
// confidence by how close a context keyword appears to the match.
type RegexDetector struct {
	email  *regexp.Regexp
	phone  *regexp.Regexp
	cccd   *regexp.Regexp
	taxID  *regexp.Regexp
	secret []*regexp.Regexp

	cccdContext  []string
	taxContext   []string
	phoneContext []string
}

// NewRegexDetector builds a RegexDetector with the gateway's built-in
// pattern set.
func NewRegexDetector() *RegexDetector {
	return &RegexDetector{
		email: regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),
		phone: regexp.MustCompile(`\b(?:\+84|0)(?:[\s.-]?\d){9,10}\b`),
		cccd:  regexp.MustCompile(`\b\d{12}\b`),
		taxID: regexp.MustCompile(`\b\d{10}(?:-\d{3})?\b`),
		secret: []*regexp.Regexp{
			regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
			regexp.MustCompile(`\bghp_[A-Za-z0-9]{36,}\b`),
			regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`),
		},
		cccdContext:  []string{"cccd", "căn cước", "cmnd"},
		taxContext:   []string{"mst", "mã số thuế", "tax code"},
		phoneContext: []string{"sđt", "số điện thoại", "hotline", "liên hệ", "số"},
	}
}

// Scan returns every regex match found in text, scored by pattern and, for
// phone/CCCD/tax patterns, by nearby context keywords.
func (d *RegexDetector) Scan(text string) []types.Entity {
	lower := strings.ToLower(text)
	var out []types.Entity

	for _, m := range d.email.FindAllStringIndex(text, -1) {
		matched := text[m[0]:m[1]]
		out = append(out, d.entity(types.EntityEmail, text, m[0], m[1], 0.95,
			map[string]string{"normalized": strings.ToLower(matched)}))
	}

	for _, m := range d.phone.FindAllStringIndex(text, -1) {
		level := contextLevel(lower, m[0], d.phoneContext)
		score := scoreForLevel(level, 0.90, 0.80, 0.70)
		out = append(out, d.entity(types.EntityPhone, text, m[0], m[1], score,
			map[string]string{
				"normalized":    normalizePhone(text[m[0]:m[1]]),
				"context_level": levelString(level),
			}))
	}

	for _, m := range d.cccd.FindAllStringIndex(text, -1) {
		level := contextLevel(lower, m[0], d.cccdContext)
		score := scoreForLevel(level, 0.95, 0.85, 0.65)
		out = append(out, d.entity(types.EntityCCCD, text, m[0], m[1], score,
			map[string]string{"context_level": levelString(level)}))
	}

	for _, m := range d.taxID.FindAllStringIndex(text, -1) {
		level := contextLevel(lower, m[0], d.taxContext)
		score := scoreForLevel(level, 0.90, 0.80, 0.65)
		matched := text[m[0]:m[1]]
		out = append(out, d.entity(types.EntityTaxID, text, m[0], m[1], score,
			map[string]string{
				"normalized":    strings.ReplaceAll(matched, "-", ""),
				"context_level": levelString(level),
			}))
	}

	for _, re := range d.secret {
		for _, m := range re.FindAllStringIndex(text, -1) {
			out = append(out, d.entity(types.EntityAPISecret, text, m[0], m[1], 0.98, nil))
		}
	}

	return out
}

func (d *RegexDetector) entity(t types.EntityType, text string, start, end int, score float64, meta map[string]string) types.Entity {
	return types.Entity{
		Type:     t,
		Start:    start,
		End:      end,
		Score:    score,
		Source:   types.SourceLocalRegex,
		Text:     text[start:end],
		Metadata: meta,
	}
}

// contextLevel reports how close the nearest context keyword is to pos:
// 2 within ±20 bytes, 1 within ±60 bytes, 0 if none found in either window.
func contextLevel(lowerText string, pos int, keywords []string) int {
	for _, w := range []struct {
		window int
		level  int
	}{{20, 2}, {60, 1}} {
		start := pos - w.window
		if start < 0 {
			start = 0
		}
		end := pos + w.window
		if end > len(lowerText) {
			end = len(lowerText)
		}
		snippet := lowerText[start:end]
		for _, kw := range keywords {
			if strings.Contains(snippet, kw) {
				return w.level
			}
		}
	}
	return 0
}

func scoreForLevel(level int, hi, mid, lo float64) float64 {
	switch level {
	case 2:
		return hi
	case 1:
		return mid
	default:
		return lo
	}
}

// normalizePhone strips everything but digits and rewrites a "84" country
// code prefix to the domestic "0" form, matching the original detector's
// _normalize_phone.
func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "84") {
		digits = "0" + digits[2:]
	}
	return digits
}

func levelString(level int) string {
	switch level {
	case 2:
		return "2"
	case 1:
		return "1"
	default:
		return "0"
	}
}
