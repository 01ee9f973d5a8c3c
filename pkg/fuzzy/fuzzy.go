package fuzzy

import (
	"strings"
	"unicode"
)

// LevenshteinDistance calculates the edit distance between two strings:
// the number of single-character insertions, deletions or substitutions
// required to change one into the other.
func LevenshteinDistance(s1, s2 string) int {
	s1 = Normalize(s1)
	s2 = Normalize(s2)

	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
	}

	for i := 0; i <= m; i++ {
		d[i][0] = i
	}
	for j := 0; j <= n; j++ {
		d[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			d[i][j] = min3(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}

	return d[m][n]
}

// Tolerance returns the allowed edit distance for a query of the given
// length. Short queries get almost no slack, long ones a bit more.
func Tolerance(queryLen int) int {
	switch {
	case queryLen <= 3:
		return 0
	case queryLen <= 7:
		return 1
	default:
		return 2
	}
}

// MatchToken reports whether a single query token matches an indexed token,
// by exact match, prefix, or edit distance within Tolerance.
func MatchToken(query, token string) bool {
	query = Normalize(query)
	token = Normalize(token)

	if query == token {
		return true
	}
	if strings.HasPrefix(token, query) {
		return true
	}
	threshold := Tolerance(len(query))
	if threshold == 0 {
		return false
	}
	return LevenshteinDistance(query, token) <= threshold
}

// TokenScore scores one query-token/indexed-token pair. Exact matches beat
// prefixes, prefixes beat typo matches, misses score zero.
func TokenScore(query, token string) float64 {
	query = Normalize(query)
	token = Normalize(token)

	if query == token {
		return 1.0
	}
	if strings.HasPrefix(token, query) {
		return 0.6
	}
	threshold := Tolerance(len(query))
	if threshold > 0 {
		if dist := LevenshteinDistance(query, token); dist <= threshold {
			return 0.4 / float64(dist)
		}
	}
	return 0
}

// Tokenize splits text into normalized tokens on any non-alphanumeric rune.
func Tokenize(text string) []string {
	return strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Normalize lowercases and trims a string for matching.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
