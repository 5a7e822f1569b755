package course

import (
	"strings"
	"unicode"
)

// NormalizeAnswer lowercases the text, deletes punctuation in place, and
// splits the rest on whitespace. Extra spaces never affect grading, and
// in-word punctuation simply vanishes: "don't" normalizes to "dont".
func NormalizeAnswer(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}

// TypedResult describes the outcome of grading one typed answer
type TypedResult struct {
	Correct        bool
	LengthMismatch bool
	// On a token mismatch, the zero-based position and the two tokens
	// that differ, for the positional hint shown to the user.
	MismatchIndex int
	UserToken     string
	WantToken     string
}

// CheckTypedAnswer grades a submitted free-text answer against the
// expected one, token for token. The shared prefix is compared first, so
// a wrong word earns a positional hint even when the word counts differ;
// the count hint only appears when every shared token matches.
func CheckTypedAnswer(submitted, expected string) TypedResult {
	got := NormalizeAnswer(submitted)
	want := NormalizeAnswer(expected)

	n := len(got)
	if len(want) < n {
		n = len(want)
	}
	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			return TypedResult{
				MismatchIndex: i,
				UserToken:     got[i],
				WantToken:     want[i],
			}
		}
	}
	if len(got) != len(want) {
		return TypedResult{LengthMismatch: true}
	}
	return TypedResult{Correct: true}
}
