package reasoning

import "github.com/hyperengineering/forge/internal/module"

// CalculationConfidence is the confidence learned for arithmetic answers.
const CalculationConfidence = 0.95

const defaultBaseConfidence = 0.6

var baseConfidence = map[Intent]float64{
	IntentGreeting:    0.95,
	IntentThanks:      0.95,
	IntentGoodbye:     0.95,
	IntentCalculation: 0.98,
	IntentQuestion:    0.75,
	IntentAnalysis:    0.8,
	IntentLearning:    0.85,
	IntentUnknown:     0.4,
}

// EstimateConfidence rates a synthesized response. It starts from the
// intent's base value and adds 0.1 for an identified domain, 0.05 for
// analytic reasoning, 0.05 for a history longer than five turns and 0.05
// for inputs of 5 to 15 words. The result is clamped to [0,1].
func EstimateConfidence(intent Intent, reasoning ReasoningType, hasDomain bool, words, historyLen int) float64 {
	c, ok := baseConfidence[intent]
	if !ok {
		c = defaultBaseConfidence
	}
	if hasDomain {
		c += 0.1
	}
	if reasoning == ReasoningAnalysis || reasoning == ReasoningCauseEffect {
		c += 0.05
	}
	if historyLen > 5 {
		c += 0.05
	}
	if words >= 5 && words <= 15 {
		c += 0.05
	}
	return module.ClampConfidence(c)
}
