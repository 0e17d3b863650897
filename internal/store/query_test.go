package store

import "testing"

func TestParseQueryTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"   \t  ", nil},
		{"crash", []string{"crash"}},
		{"Crash STARTUP", []string{"crash", "startup"}},
		{"  a   b\tc ", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		q := ParseQuery(tt.input)
		got := q.Tokens()
		if len(got) != len(tt.want) {
			t.Errorf("ParseQuery(%q) tokens = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseQuery(%q) tokens[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestEmptyQueryMatchesEverything(t *testing.T) {
	q := ParseQuery("  ")
	if !q.IsEmpty() {
		t.Fatal("query of whitespace should be empty")
	}
	if !q.Matches(nil) {
		t.Error("empty query must match empty candidate set")
	}
	if !q.Matches([]string{"anything"}) {
		t.Error("empty query must match any candidate set")
	}
}

func TestMatchesAndOverTokensOrOverCandidates(t *testing.T) {
	candidates := []string{"Crash on startup", "Assigned to Ada"}

	tests := []struct {
		query string
		want  bool
	}{
		{"crash", true},
		{"CRASH", true},           // case-insensitive
		{"crash ada", true},       // tokens may match different candidates
		{"crash missing", false},  // every token must match somewhere
		{"tart", true},            // substring, not word match
		{"crash on startup", true},
		{"adamant", false},
	}
	for _, tt := range tests {
		if got := ParseQuery(tt.query).Matches(candidates); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestMatchesEmptyCandidates(t *testing.T) {
	if ParseQuery("x").Matches(nil) {
		t.Error("non-empty query must not match empty candidate set")
	}
}
