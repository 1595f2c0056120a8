package reasoning

import (
	"fmt"
	"strings"

	"github.com/hyperengineering/forge/internal/types"
)

// Fixed lines of the fallback ladder.
const (
	calculationHint = "I can help with calculations! Try asking me something like 'what is 15 + 27?' or 'calculate the average of 10, 20, 30'."
	learningHint    = "I'm always learning from our conversations. What would you like me to explain or learn about?"
	continuityLine  = "I notice we've been discussing topics like '%s'. Would you like to explore this further or ask about something else?"
	shortQuestion   = "That's a great question! Could you provide a bit more detail so I can give you the best answer?"
	longQuestion    = "Interesting question! While I may not have all the details, I'd be happy to help you think through this. Could you share more context?"
	longInput       = "That's quite detailed! Let me focus on the key points. Could you highlight the main question or topic you'd like me to address?"
	conceptLine     = "%s. While I'm processing the concepts of %s, I need more context to provide the most helpful response. Could you elaborate on what specifically interests you?"
	analysisRequest = "This requires systematic analysis. Could you provide more specific details for me to examine?"
)

var shortInputPool = []string{
	"I'm here to help! What would you like to know or discuss?",
	"Feel free to ask me anything - calculations, questions, or just chat!",
	"I'd love to assist you. What's on your mind?",
	"What can I help you with today?",
}

// turn carries the classification of one input through synthesis.
type turn struct {
	clean     string
	intent    Intent
	reasoning ReasoningType
	domain    *domain
	concepts  []string
	history   []types.ConversationTurn
}

func (m *Module) synthesize(t *turn) string {
	switch t.intent {
	case IntentGreeting:
		return m.greeting(t)
	case IntentQuestion:
		return m.question(t)
	case IntentAnalysis:
		return m.analysis(t)
	case IntentThanks:
		if len(t.history) > 5 && m.cfg.Phrases.LoyalThanks != "" {
			return m.cfg.Phrases.LoyalThanks
		}
		return pick(m.rng, m.cfg.Templates.Thanks)
	case IntentGoodbye:
		if topic, ok := m.memory.lastTopic(); ok && len(t.history) > 3 && m.cfg.Phrases.TopicGoodbye != "" {
			return fill(m.cfg.Phrases.TopicGoodbye, topic)
		}
		return pick(m.rng, m.cfg.Templates.Goodbye)
	case IntentLearning:
		if len(m.cfg.Templates.Learning) > 0 {
			return pick(m.rng, m.cfg.Templates.Learning)
		}
	}
	return m.unknown(t)
}

func (m *Module) greeting(t *turn) string {
	p := m.cfg.Phrases
	n := len(t.history)
	switch {
	case n == 0 && p.FirstGreeting != "":
		return p.FirstGreeting
	case n > 0 && n < 5 && p.ReturningGreeting != "":
		return p.ReturningGreeting
	case n >= 5 && p.TopicGreeting != "":
		if topic, ok := m.memory.lastTopic(); ok {
			return fill(p.TopicGreeting, topic)
		}
	}
	return pick(m.rng, m.cfg.Templates.Greeting)
}

func (m *Module) question(t *turn) string {
	p := m.cfg.Phrases
	switch {
	case p.Identity != "" && containsAny(t.clean, "who are you", "what are you"):
		return p.Identity
	case p.HowItWorks != "" && strings.Contains(t.clean, "how do you work"):
		return p.HowItWorks
	case p.Capabilities != "" && containsAny(t.clean, "what can you do", "your capabilities", "help me"):
		return p.Capabilities
	case p.VagueQuestion != "" && (t.clean == "what" || t.clean == "what?"):
		return p.VagueQuestion
	}

	if len(t.concepts) == 0 {
		return m.unknown(t)
	}

	if d := t.domain; d != nil {
		if len(d.responses) > 0 {
			answer := fill(pick(m.rng, d.responses), strings.Join(head(t.concepts, 3), ", "))
			if d.reasoning != "" {
				answer = d.reasoning + ". " + answer
			}
			return answer + ". Let me analyze this further: " + deeperAnalysis(t.concepts, t.reasoning)
		}
		return fmt.Sprintf("That's a great question about %s! %s",
			d.name, fill(pick(m.rng, m.cfg.Templates.Question), combineConcepts(t.concepts)))
	}

	return fill(pick(m.rng, m.cfg.Templates.Question), combineConcepts(t.concepts))
}

func (m *Module) analysis(t *turn) string {
	if len(t.concepts) == 0 {
		return analysisRequest
	}
	if d := t.domain; d != nil && len(d.responses) > 0 {
		return fill(pick(m.rng, d.responses), strings.Join(head(t.concepts, 2), ", ")) +
			". " + deeperAnalysis(t.concepts, t.reasoning)
	}
	return fmt.Sprintf("Analyzing %s, I can identify several interconnected factors: %s",
		t.concepts[0], deeperAnalysis(t.concepts, t.reasoning))
}

// unknown walks the fallback ladder; the first rung that applies answers.
func (m *Module) unknown(t *turn) string {
	bare := strings.Trim(t.clean, "!?., ")
	switch bare {
	case "hi", "hello", "hey":
		return pick(m.rng, m.cfg.Templates.Greeting)
	case "thanks", "thank you", "thx":
		return pick(m.rng, m.cfg.Templates.Thanks)
	case "bye", "goodbye", "see you":
		return pick(m.rng, m.cfg.Templates.Goodbye)
	}

	if m.cfg.Arithmetic && containsAny(t.clean, "calculate", "math", "compute") {
		return calculationHint
	}
	if containsAny(t.clean, "learn", "teach", "explain") {
		return learningHint
	}

	if len(t.history) > 2 {
		if topic, ok := recentTopic(t.history); ok {
			return fmt.Sprintf(continuityLine, topic)
		}
	}

	words := wordCount(t.clean)
	switch {
	case strings.Contains(t.clean, "?"):
		if words < 5 {
			return shortQuestion
		}
		return longQuestion
	case words < 3:
		return pick(m.rng, shortInputPool)
	case words > 15:
		return longInput
	}

	if len(t.concepts) > 0 {
		return fmt.Sprintf(conceptLine, reasoningApproach(t.reasoning), strings.Join(head(t.concepts, 2), ", "))
	}
	return pick(m.rng, m.cfg.Templates.Unknown)
}

// recentTopic returns the first word among the opening words of the user
// turns in the last three history entries.
func recentTopic(history []types.ConversationTurn) (string, bool) {
	start := max(0, len(history)-3)
	for _, h := range history[start:] {
		if h.Role != types.RoleUser {
			continue
		}
		if words := strings.Fields(strings.ToLower(h.Content)); len(words) > 0 {
			return words[0], true
		}
	}
	return "", false
}

func reasoningApproach(r ReasoningType) string {
	switch r {
	case ReasoningAnalysis:
		return "I need to analyze this carefully"
	case ReasoningCauseEffect:
		return "Let me consider the causal relationships here"
	case ReasoningComparison:
		return "I should compare different aspects of this"
	default:
		return "Let me think about this systematically"
	}
}

func deeperAnalysis(concepts []string, r ReasoningType) string {
	c := concepts[0]
	switch r {
	case ReasoningCauseEffect:
		return fmt.Sprintf("The relationship between %s involves causal factors that interconnect in complex ways", c)
	case ReasoningComparison:
		return fmt.Sprintf("Comparing %s with related concepts reveals important distinctions and similarities", c)
	case ReasoningAnalysis:
		return fmt.Sprintf("Breaking down %s into its component parts helps us understand the underlying mechanisms", c)
	default:
		return fmt.Sprintf("Synthesizing information about %s requires integrating multiple perspectives", c)
	}
}

func combineConcepts(concepts []string) string {
	switch len(concepts) {
	case 0:
		return "this is an interesting topic that requires more information"
	case 1:
		return fmt.Sprintf("the concept of '%s' is multifaceted and worth exploring", concepts[0])
	case 2:
		return fmt.Sprintf("'%s' and '%s' are related in several ways", concepts[0], concepts[1])
	default:
		return fmt.Sprintf("'%s', '%s', and other factors like '%s' all contribute to the answer",
			concepts[0], concepts[1], concepts[2])
	}
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
