package reasoning

import (
	"math"

	"github.com/hyperengineering/forge/internal/module"
	"github.com/hyperengineering/forge/internal/types"
)

// Semantic retrieval scoring.
const (
	SemanticAcceptanceThreshold = 4.0
	semanticConfidenceWeight    = 2.0
	semanticUsageWeight         = 0.5
	semanticUsageCap            = 3.0
)

// semanticScore rates a stored pattern by the concepts it shares with the
// input, plus bonuses for its confidence and usage.
func semanticScore(inputConcepts map[string]struct{}, p types.LearnedPattern) float64 {
	overlap := 0
	for _, c := range ExtractConcepts(p.Pattern) {
		if _, ok := inputConcepts[c]; ok {
			overlap++
		}
	}
	usage := math.Min(semanticUsageWeight*float64(p.UsageCount), semanticUsageCap)
	return float64(overlap) + semanticConfidenceWeight*p.Confidence + usage
}

// semanticMatch returns the best pattern scoring above
// SemanticAcceptanceThreshold. The first pattern wins ties.
func semanticMatch(input string, patterns []types.LearnedPattern) (*types.LearnedPattern, bool) {
	if module.Normalize(input) == "" {
		return nil, false
	}

	concepts := ExtractConcepts(input)

	set := make(map[string]struct{}, len(concepts))
	for _, c := range concepts {
		set[c] = struct{}{}
	}

	var (
		best      *types.LearnedPattern
		bestScore = SemanticAcceptanceThreshold
	)
	for i := range patterns {
		if score := semanticScore(set, patterns[i]); score > bestScore {
			best, bestScore = &patterns[i], score
		}
	}
	return best, best != nil
}
