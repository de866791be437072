// internal/game/similarity.go
//
// Clue checks: the root/suffix similarity heuristic, server-side clue
// validation, and the bulk filtering pass run once all clues are in.
//
// The similarity check is a heuristic, not a stemmer: two words are "too
// similar" when they share the first 4 letters or the last 3 letters.

package game

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	similarPrefixLen = 4
	similarSuffixLen = 3
)

// MaxWordLen bounds clues and guesses, in runes.
const MaxWordLen = 32

// CheckWordSimilarity reports whether a and b are equal, either is empty, or
// they share a root (4-letter prefix) or an ending (3-letter suffix).
// Comparison is case-insensitive and symmetric.
func CheckWordSimilarity(a, b string) bool {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	if len(ra) == 0 || len(rb) == 0 || string(ra) == string(rb) {
		return true
	}

	if len(ra) >= similarPrefixLen && len(rb) >= similarPrefixLen &&
		string(ra[:similarPrefixLen]) == string(rb[:similarPrefixLen]) {
		return true
	}

	if len(ra) >= similarSuffixLen && len(rb) >= similarSuffixLen &&
		string(ra[len(ra)-similarSuffixLen:]) == string(rb[len(rb)-similarSuffixLen:]) {
		return true
	}
	return false
}

// IsWordSimilarToAny reports whether word is similar to any entry of list.
func IsWordSimilarToAny(word string, list []string) bool {
	for _, w := range list {
		if CheckWordSimilarity(word, w) {
			return true
		}
	}
	return false
}

// NormalizeClue is the stored form of a clue: trimmed and uppercased.
func NormalizeClue(word string) string {
	return strings.ToUpper(strings.TrimSpace(word))
}

// ValidateClue applies the clue rules before a clue is accepted:
// non-empty, at most MaxWordLen runes, a single word, not the secret word
// and not a morphological variant of it.
func ValidateClue(word, secret string) error {
	w := strings.TrimSpace(word)
	if w == "" {
		return ErrEmptyClue
	}
	if utf8.RuneCountInString(w) > MaxWordLen {
		return ErrClueTooLong
	}
	if strings.IndexFunc(w, unicode.IsSpace) >= 0 {
		return ErrMultiWordClue
	}
	if strings.EqualFold(w, secret) {
		return ErrClueIsSecret
	}
	if CheckWordSimilarity(w, secret) {
		return ErrClueTooSimilar
	}
	return nil
}

// markFiltered computes the filtered flag of every clue against secret.
// A clue is filtered when its lowercased word appears more than once (all
// members of the group, not just the later ones), when it equals the secret
// word, or when it is similar to it. The result depends only on the clue
// words and the secret, so applying it twice yields the same flags.
func markFiltered(clues []Clue, secret string) []Clue {
	groups := make(map[string]int, len(clues))
	for _, c := range clues {
		groups[strings.ToLower(c.Word)]++
	}

	out := make([]Clue, len(clues))
	for i, c := range clues {
		lw := strings.ToLower(c.Word)
		c.Filtered = groups[lw] > 1 ||
			lw == strings.ToLower(secret) ||
			CheckWordSimilarity(c.Word, secret)
		out[i] = c
	}
	return out
}
