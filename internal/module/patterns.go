package module

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

const (
	// maxWindow is the longest word sequence emitted as a pattern.
	maxWindow = 3
	// minPatternLength is the shortest window, in characters, kept as a pattern.
	minPatternLength = 3
)

// Normalize lowercases and trims text the way stored patterns are keyed.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// ExtractPatterns returns the candidate keys learned for text: the full
// normalized string, plus every 1 to 3 word window of at least three
// characters when the text has more than one word. Order is first-seen and
// duplicates are removed, so the result is stable for a given input.
func ExtractPatterns(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	patterns := []string{normalized}

	words := strings.Fields(normalized)
	if len(words) > 1 {
		for i := range words {
			for n := 1; n <= maxWindow && i+n <= len(words); n++ {
				window := strings.Join(words[i:i+n], " ")
				if utf8.RuneCountInString(window) >= minPatternLength {
					patterns = append(patterns, window)
				}
			}
		}
	}

	return lo.Uniq(patterns)
}

// wordSet returns the distinct whitespace-delimited words of s.
func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// sharedWords counts the distinct words present in both a and b.
func sharedWords(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
