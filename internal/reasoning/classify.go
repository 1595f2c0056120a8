package reasoning

import (
	"strings"

	"github.com/hyperengineering/forge/internal/moduleconfig"
)

// Intent is the conversational purpose assigned to one input.
type Intent string

const (
	IntentGreeting    Intent = "greeting"
	IntentQuestion    Intent = "question"
	IntentCalculation Intent = "calculation"
	IntentAnalysis    Intent = "analysis"
	IntentThanks      Intent = "thanks"
	IntentGoodbye     Intent = "goodbye"
	IntentLearning    Intent = "learning"
	IntentUnknown     Intent = "unknown"
)

// ReasoningType is the style of reasoning an input calls for.
type ReasoningType string

const (
	ReasoningCauseEffect ReasoningType = "cause_effect"
	ReasoningComparison  ReasoningType = "comparison"
	ReasoningAnalysis    ReasoningType = "analysis"
	ReasoningSynthesis   ReasoningType = "synthesis"
	ReasoningHypothesis  ReasoningType = "hypothesis"
)

// MinDomainScore is the score a domain must exceed to be selected.
const MinDomainScore = 1

type keywordRow[K any] struct {
	key      K
	keywords []string
}

// intentKeywords is ordered; earlier intents win ties.
var intentKeywords = []keywordRow[Intent]{
	{IntentGreeting, []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "greetings"}},
	{IntentQuestion, []string{"?", "what", "how", "when", "where", "why", "who", "which", "can you", "do you", "are you"}},
	{IntentCalculation, []string{"calculate", "compute", "math", "add", "subtract", "multiply", "divide", "plus", "minus", "times", "divided by", "=", "+", "-", "*", "/", "sum", "total", "average", "percentage"}},
	{IntentAnalysis, []string{"analyze", "compare", "evaluate", "assess", "examine", "review", "consider", "think about"}},
	{IntentThanks, []string{"thank you", "thanks", "appreciate", "grateful", "much appreciated"}},
	{IntentGoodbye, []string{"goodbye", "bye", "see you", "farewell", "until next time", "take care"}},
	{IntentLearning, []string{"learn", "teach", "remember", "understand", "know", "explain", "show me"}},
}

// reasoningKeywords is checked in order; the first row with a match wins.
var reasoningKeywords = []keywordRow[ReasoningType]{
	{ReasoningCauseEffect, []string{"because", "since", "therefore", "as a result", "consequently"}},
	{ReasoningComparison, []string{"similar to", "different from", "like", "unlike", "compared to"}},
	{ReasoningAnalysis, []string{"analyzing", "examining", "considering", "evaluating", "breaking down"}},
	{ReasoningSynthesis, []string{"combining", "integrating", "merging", "connecting", "relating"}},
	{ReasoningHypothesis, []string{"possibly", "might be", "could be", "perhaps", "potentially"}},
}

// domain is a knowledge area with lowercased keywords.
type domain struct {
	name      string
	keywords  []string
	reasoning string
	responses []string
}

func compileDomains(areas []moduleconfig.KnowledgeArea) []domain {
	domains := make([]domain, 0, len(areas))
	for _, a := range areas {
		d := domain{name: a.Name, reasoning: a.Reasoning, responses: a.Responses}
		for _, k := range a.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				d.keywords = append(d.keywords, k)
			}
		}
		domains = append(domains, d)
	}
	return domains
}

// classifyIntent scores every intent by the word count of each of its
// keywords present in text. The strictly highest positive score wins. With
// no keyword at all, a knowledge-domain keyword makes the input analysis.
func classifyIntent(text string, domains []domain) Intent {
	best, bestScore := IntentUnknown, 0
	for _, row := range intentKeywords {
		score := 0
		for _, k := range row.keywords {
			if strings.Contains(text, k) {
				score += wordCount(k)
			}
		}
		if score > bestScore {
			best, bestScore = row.key, score
		}
	}
	if bestScore > 0 {
		return best
	}

	for _, d := range domains {
		if containsAny(text, d.keywords...) {
			return IntentAnalysis
		}
	}
	return IntentUnknown
}

// ClassifyReasoning returns the first reasoning type with a keyword in
// text, else a default derived from question form.
func ClassifyReasoning(text string) ReasoningType {
	for _, row := range reasoningKeywords {
		if containsAny(text, row.keywords...) {
			return row.key
		}
	}

	switch {
	case strings.Contains(text, "?"):
		return ReasoningAnalysis
	case containsAny(text, "why", "how", "what if"):
		return ReasoningCauseEffect
	case containsAny(text, "compare", "versus", "difference"):
		return ReasoningComparison
	default:
		return ReasoningSynthesis
	}
}

// classifyDomain scores every domain by the sum of (word count + 1) over
// its keywords present in text and returns the best one scoring above
// MinDomainScore. The earlier domain wins ties. nil means no domain.
func classifyDomain(text string, domains []domain) *domain {
	var (
		best      *domain
		bestScore = MinDomainScore
	)
	for i := range domains {
		score := 0
		for _, k := range domains[i].keywords {
			if strings.Contains(text, k) {
				score += wordCount(k) + 1
			}
		}
		if score > bestScore {
			best, bestScore = &domains[i], score
		}
	}
	return best
}
