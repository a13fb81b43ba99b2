// Package textmatch measures how closely extracted text matches a reference.
package textmatch

import (
	"strings"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// Normalize lower-cases text and collapses whitespace
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// WordErrorRate returns the word-level edit distance between reference and
// hypothesis divided by the number of reference words
func WordErrorRate(reference, hypothesis string) float64 {
	ref := strings.Fields(Normalize(reference))
	hyp := strings.Fields(Normalize(hypothesis))
	if len(ref) == 0 {
		if len(hyp) == 0 {
			return 0
		}
		return 1
	}
	rate, _ := wer.WER(ref, hyp)
	return rate
}

// CharacterErrorRate returns the character-level edit distance between
// reference and hypothesis divided by the reference length
func CharacterErrorRate(reference, hypothesis string) float64 {
	ref := Normalize(reference)
	hyp := Normalize(hypothesis)
	n := utf8.RuneCountInString(ref)
	if n == 0 {
		if hyp == "" {
			return 0
		}
		return 1
	}
	return float64(levenshtein.Distance(ref, hyp)) / float64(n)
}
