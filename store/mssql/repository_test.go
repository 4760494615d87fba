package mssql

import (
	"reflect"
	"testing"
	"time"
)

func TestNewRepositoryRejectsBadTableName(t *testing.T) {
	tests := []string{"", "Watchlist Matches", "matches;drop", "1table", "[matches]"}
	for _, table := range tests {
		if _, err := NewRepository("sqlserver://localhost", table, time.Second); err == nil {
			t.Fatalf("table %q should be rejected", table)
		}
	}
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "lowercases and splits", query: "Strong Finisher", expected: []string{"strong", "finisher"}},
		{name: "collapses whitespace", query: "  held   up ", expected: []string{"held", "up"}},
		{name: "empty", query: "   ", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitKeywords(tt.query); !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("splitKeywords(%q) = %v, want %v", tt.query, got, tt.expected)
			}
		})
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "plain", expected: "plain"},
		{input: "50%", expected: `50\%`},
		{input: "under_score", expected: `under\_score`},
		{input: "[bracket]", expected: `\[bracket]`},
		{input: `back\slash`, expected: `back\\slash`},
	}

	for _, tt := range tests {
		if got := escapeLike(tt.input); got != tt.expected {
			t.Fatalf("escapeLike(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
