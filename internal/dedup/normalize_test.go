package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips extension and lowercases",
			input:    "Invoice_Acme_March.PDF",
			expected: "invoice acme march",
		},
		{
			name:     "strips scanner prefix",
			input:    "scan_0042_invoice_acme.pdf",
			expected: "invoice acme",
		},
		{
			name:     "strips embedded date",
			input:    "report-2023-01-31-final.pdf",
			expected: "report",
		},
		{
			name:     "strips version and copy suffixes",
			input:    "contract_v2 (3).docx",
			expected: "contract",
		},
		{
			name:     "strips directory components",
			input:    "/inbox/2023/IMG_1234_receipt.jpg",
			expected: "receipt",
		},
		{
			name:     "collapses punctuation to spaces",
			input:    "acme--invoice__march.pdf",
			expected: "acme invoice march",
		},
		{
			name:     "prefix only filename reduces to empty",
			input:    "IMG_20230131.jpg",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeFilename(tt.input))
		})
	}
}

func TestNormalizeContent(t *testing.T) {
	t.Run("lowercases and collapses whitespace", func(t *testing.T) {
		got := NormalizeContent("  Total\tDue:\n\n$420.00  ", 1000)
		assert.Equal(t, "total due: $420.00", got)
	})

	t.Run("truncates to limit runes", func(t *testing.T) {
		got := NormalizeContent(strings.Repeat("a", 50), 10)
		assert.Len(t, got, 10)
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		assert.Equal(t, "", NormalizeContent("   ", 1000))
	})
}

func TestEditRatio(t *testing.T) {
	t.Run("identical strings", func(t *testing.T) {
		assert.Equal(t, 1.0, EditRatio("invoice acme march", "invoice acme march"))
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Equal(t, 1.0, EditRatio("", ""))
	})

	t.Run("one empty", func(t *testing.T) {
		assert.Equal(t, 0.0, EditRatio("invoice", ""))
	})

	t.Run("near match crosses default threshold", func(t *testing.T) {
		ratio := EditRatio("invoice acme march", "invoice acme marh")
		assert.Greater(t, ratio, 0.90)
	})

	t.Run("unrelated strings stay low", func(t *testing.T) {
		ratio := EditRatio("invoice acme march", "zebra quarterly holdings")
		assert.Less(t, ratio, 0.40)
	})
}

func TestTokenJaccard(t *testing.T) {
	t.Run("identical token sets", func(t *testing.T) {
		assert.Equal(t, 1.0, TokenJaccard("total due 420", "due 420 total"))
	})

	t.Run("disjoint token sets", func(t *testing.T) {
		assert.Equal(t, 0.0, TokenJaccard("alpha beta", "gamma delta"))
	})

	t.Run("partial overlap", func(t *testing.T) {
		// {a b c} vs {b c d}: 2 shared of 4 total.
		assert.InDelta(t, 0.5, TokenJaccard("a b c", "b c d"), 1e-9)
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Equal(t, 1.0, TokenJaccard("", ""))
	})

	t.Run("one empty", func(t *testing.T) {
		assert.Equal(t, 0.0, TokenJaccard("a b", ""))
	})
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		assert.InDelta(t, 1.0, CosineSimilarity([]float32{0.5, 0.5, 0.1}, []float32{0.5, 0.5, 0.1}), 1e-6)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	})

	t.Run("zero vector", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	})
}
