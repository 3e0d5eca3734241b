package dedup

import (
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	// Capture-device prefixes: scanners, phone cameras, screenshot tools.
	devicePrefixRe = regexp.MustCompile(`(?i)^(scan|scanned|img|image|dsc|dscn|pxl|photo|screenshot|doc)[-_ ]*\d*[-_ ]*`)
	// Embedded dates: 2023-01-31, 2023_01_31, 20230131.
	dateRe = regexp.MustCompile(`\d{4}[-_.]?\d{2}[-_.]?\d{2}`)
	// Trailing version markers: v2, (3), copy, final, draft.
	versionSuffixRe = regexp.MustCompile(`(?i)[-_ ]*(v\d+|copy|final|draft|\(\d+\))$`)
	punctRe         = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// NormalizeFilename reduces a raw filename to its comparable core:
// extension, device prefixes, embedded dates, version suffixes and
// punctuation are stripped, the rest lower-cased with collapsed spaces.
func NormalizeFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ToLower(base)
	base = devicePrefixRe.ReplaceAllString(base, "")
	base = dateRe.ReplaceAllString(base, " ")
	for {
		next := versionSuffixRe.ReplaceAllString(base, "")
		if next == base {
			break
		}
		base = next
	}
	base = punctRe.ReplaceAllString(base, " ")
	base = whitespaceRe.ReplaceAllString(base, " ")
	return strings.TrimSpace(base)
}

// NormalizeContent lower-cases text, collapses whitespace and truncates
// to at most limit runes.
func NormalizeContent(text string, limit int) string {
	text = strings.ToLower(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if limit > 0 {
		runes := []rune(text)
		if len(runes) > limit {
			text = string(runes[:limit])
		}
	}
	return text
}

// EditRatio returns a 0..1 similarity from the Levenshtein distance
// between two strings.
func EditRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1.0 - float64(dist)/float64(longest)
}

// TokenJaccard computes word-set overlap: |A∩B| / |A∪B| over
// whitespace-split tokens.
func TokenJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}
	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either is empty, mismatched or zero-length.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(text)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
