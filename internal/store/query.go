package store

import "strings"

// Query is a parsed free-text search input: an immutable list of lowercased
// tokens combined with AND semantics. There is no quoting, negation, or
// field scoping; matching is plain case-insensitive substring.
type Query struct {
	tokens []string
}

// ParseQuery splits text on whitespace, discards empties, and lowercases
// each token.
func ParseQuery(text string) Query {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Query{}
	}
	tokens := make([]string, len(fields))
	for i, f := range fields {
		tokens[i] = strings.ToLower(f)
	}
	return Query{tokens: tokens}
}

// IsEmpty reports whether the query has no tokens. An empty query matches
// everything.
func (q Query) IsEmpty() bool {
	return len(q.tokens) == 0
}

// Tokens returns the parsed tokens in input order.
func (q Query) Tokens() []string {
	return q.tokens
}

// Matches reports whether every token is a case-insensitive substring of at
// least one candidate. Different tokens may match different candidates.
func (q Query) Matches(candidates []string) bool {
	if q.IsEmpty() {
		return true
	}
	lowered := make([]string, len(candidates))
	for i, c := range candidates {
		lowered[i] = strings.ToLower(c)
	}
	return q.matchesLower(lowered)
}

// matchesLower is the scan fast path over pre-lowercased candidates.
func (q Query) matchesLower(lowered []string) bool {
	for _, tok := range q.tokens {
		found := false
		for _, cand := range lowered {
			if strings.Contains(cand, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
