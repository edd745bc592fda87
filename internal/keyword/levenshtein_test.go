package keyword

import "testing"

func TestDamerauLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"identical empty", "", "", 0},
		{"identical", "publix", "publix", 0},
		{"empty a", "", "meijer", 6},
		{"empty b", "kroger", "", 6},
		{"one insertion", "costco", "costtco", 1},
		{"one deletion", "safeway", "safway", 1},
		{"unicode", "café", "cafe", 1},
		{"case sensitive", "Aldi", "aldi", 1},
		{"transposition", "ab", "ba", 1},
		{"swapped letters", "wlamart", "walmart", 1},
		{"substitution", "kroger", "krogar", 1},
		{"kitten to sitting", "kitten", "sitting", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DamerauLevenshteinDistance(tt.a, tt.b); got != tt.expected {
				t.Errorf("DamerauLevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
			if got := DamerauLevenshteinDistance(tt.b, tt.a); got != tt.expected {
				t.Errorf("DamerauLevenshteinDistance not symmetric for (%q, %q)", tt.a, tt.b)
			}
		})
	}
}

func BenchmarkDamerauLevenshteinDistance(b *testing.B) {
	for i := 0; i < b.N; i++ {
		DamerauLevenshteinDistance("whole foods market", "whole fodos markte")
	}
}
