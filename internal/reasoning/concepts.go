package reasoning

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// MaxConcepts bounds the concepts extracted from one input.
const MaxConcepts = 8

var letterRun = regexp.MustCompile(`\p{L}+`)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a an and are as at be by for from has he in is it its of on that the
		to was were will with this but they have had what said each which
		their time can could would should may might must do does did get got
		go went come came see saw look make made take took give gave`) {
		stopWords[w] = struct{}{}
	}
}

func isStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

func salient(w string) bool {
	return utf8.RuneCountInString(w) > 2 && !isStopWord(w)
}

// ExtractConcepts returns the salient words of text followed by the
// two-word phrases made of adjacent salient words, deduplicated in
// first-seen order and truncated to MaxConcepts.
func ExtractConcepts(text string) []string {
	words := letterRun.FindAllString(strings.ToLower(text), -1)

	var concepts []string
	for _, w := range words {
		if salient(w) {
			concepts = append(concepts, w)
		}
	}
	for i := 0; i+1 < len(words); i++ {
		if salient(words[i]) && salient(words[i+1]) {
			concepts = append(concepts, words[i]+" "+words[i+1])
		}
	}

	concepts = lo.Uniq(concepts)
	if len(concepts) > MaxConcepts {
		concepts = concepts[:MaxConcepts]
	}
	return concepts
}
