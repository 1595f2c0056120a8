package reasoning

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	bangRun       = regexp.MustCompile(`!{2,}`)
	questionRun   = regexp.MustCompile(`\?{2,}`)
	dotRun        = regexp.MustCompile(`\.{2,}`)
	disallowed    = regexp.MustCompile(`[^\p{L}\p{N}_\s?!.,\-+*/=()^÷×%]`)
)

// CleanInput normalizes raw input for classification: lowercase, single
// spaces, collapsed runs of "!", "?" and ".", and only letters, digits and
// the punctuation arithmetic and intent detection rely on.
func CleanInput(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = bangRun.ReplaceAllString(s, "!")
	s = questionRun.ReplaceAllString(s, "?")
	s = dotRun.ReplaceAllString(s, ".")
	s = disallowed.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// fill substitutes value for the first "{}" in template.
func fill(template, value string) string {
	return strings.Replace(template, "{}", value, 1)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// containsAny reports whether any of needles occurs in s.
func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
