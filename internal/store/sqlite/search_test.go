package sqlite

import (
	"testing"
)

func TestConvertWebsearchToFTS5(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple term",
			input:    "autophagy",
			expected: "autophagy",
		},
		{
			name:     "multiple terms",
			input:    "lysosomal clearance",
			expected: "lysosomal AND clearance",
		},
		{
			name:     "explicit OR",
			input:    "ulk1 OR atg1",
			expected: "ulk1 OR atg1",
		},
		{
			name:     "negation",
			input:    "kinase -mtor",
			expected: "kinase AND NOT mtor",
		},
		{
			name:     "phrase with other term",
			input:    `"beclin1 core complex" vps34`,
			expected: `"beclin1 core complex" AND vps34`,
		},
		{
			name:     "prefix search",
			input:    "atg*",
			expected: "atg*",
		},
		{
			name:     "hyphenated name",
			input:    "camkk-beta",
			expected: `"camkk-beta"`,
		},
		{
			name:     "hyphenated prefix",
			input:    "unc-5*",
			expected: `"unc-5"*`,
		},
		{
			name:     "negated symbol",
			input:    "calcium -ca2+",
			expected: `calcium AND NOT "ca2+"`,
		},
		{
			name:     "NOT operator",
			input:    "apoptosis NOT caspase8",
			expected: "apoptosis NOT caspase8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertWebsearchToFTS5(tt.input)
			if result != tt.expected {
				t.Errorf("convertWebsearchToFTS5(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
