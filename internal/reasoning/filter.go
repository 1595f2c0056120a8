package reasoning

import (
	"regexp"
	"strings"

	"github.com/hyperengineering/forge/internal/moduleconfig"
)

// creativeChance is the probability a highly creative module embellishes a
// response.
const creativeChance = 0.3

var creativeAdditions = []string{
	" That's an interesting perspective!",
	" Let me think about that creatively...",
	" Here's a unique way to look at it:",
	" That sparks some creative ideas!",
}

var pictographs = regexp.MustCompile(`[\p{So}\x{FE0F}\x{200D}]`)

// applyPersonality adapts a response to the module's behavior settings.
func applyPersonality(response string, b moduleconfig.Behavior, rng Rand) string {
	switch b.ResponseStyle {
	case "formal":
		response = strings.NewReplacer("can't", "cannot", "won't", "will not").Replace(response)
	case "casual":
		response = strings.NewReplacer("cannot", "can't", "will not", "won't").Replace(response)
	case "enthusiastic":
		if !strings.HasSuffix(response, "!") {
			response += "!"
		}
	}

	switch b.VerbosityLevel {
	case "concise":
		if sentences := strings.Split(response, ". "); len(sentences) > 2 {
			response = strings.Join(sentences[:2], ". ") + "."
		}
	case "detailed":
		if wordCount(response) < 5 {
			response += " I'm happy to elaborate if you'd like more details!"
		}
	}

	if !b.Emoji() {
		response = pictographs.ReplaceAllString(response, "")
	}

	if b.CreativityLevel > 7 && rng.Float64() < creativeChance {
		response += pick(rng, creativeAdditions)
	}

	return strings.TrimSpace(response)
}
