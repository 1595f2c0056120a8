package moduleconfig

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Allowed behavior values. The first entry of each list is the default.
var (
	LearningStyles      = []string{"adaptive", "conservative", "aggressive", "balanced"}
	ResponseStyles      = []string{"friendly", "formal", "casual", "enthusiastic", "professional"}
	InteractionModes    = []string{"conversational", "professional", "educational", "creative", "analytical"}
	MemoryRetentions    = []string{"standard", "minimal", "enhanced", "comprehensive"}
	VerbosityLevels     = []string{"balanced", "concise", "detailed", "comprehensive"}
	Languages           = []string{"auto", "english", "czech", "spanish", "french", "german", "italian", "portuguese"}
	RetrievalStrategies = []string{StrategyLexical, StrategySemantic}
)

// Retrieval strategies.
const (
	StrategyLexical  = "lexical"
	StrategySemantic = "semantic"
)

// Defaults applied to definitions that leave fields unset.
const (
	DefaultVersion         = "1.0.0"
	DefaultSpecialtyArea   = "General Knowledge"
	DefaultCreativityLevel = 5
	DefaultModuleType      = "User-Created Bot"

	MinCreativityLevel = 1
	MaxCreativityLevel = 10
)

var (
	defaultThanks = []string{
		"You're welcome!",
		"Happy to help!",
		"No problem!",
		"Glad I could assist!",
	}
	defaultGoodbye = []string{
		"Goodbye!",
		"See you later!",
		"Take care!",
		"Until next time!",
	}
	defaultCapabilities = []string{
		"Custom Personality",
		"Specialized Knowledge",
		"Adaptive Learning",
		"Advanced Configuration",
	}
)

// MemoryCap returns how many discussed topics a module keeps for the given
// memory_retention setting.
func MemoryCap(retention string) int {
	switch retention {
	case "minimal":
		return 5
	case "enhanced":
		return 50
	case "comprehensive":
		return 100
	default:
		return 20
	}
}

// ApplyDefaults fills every unset optional field. It never overwrites a
// value that is already present.
func ApplyDefaults(c *Config) {
	if c.ID == "" {
		c.ID = Slug(c.Name)
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.SpecialtyArea == "" {
		c.SpecialtyArea = DefaultSpecialtyArea
	}

	if len(c.Templates.Thanks) == 0 {
		c.Templates.Thanks = append([]string(nil), defaultThanks...)
	}
	if len(c.Templates.Goodbye) == 0 {
		c.Templates.Goodbye = append([]string(nil), defaultGoodbye...)
	}

	b := &c.Behavior
	b.LearningStyle = orDefault(b.LearningStyle, LearningStyles)
	b.ResponseStyle = orDefault(b.ResponseStyle, ResponseStyles)
	b.InteractionMode = orDefault(b.InteractionMode, InteractionModes)
	b.MemoryRetention = orDefault(b.MemoryRetention, MemoryRetentions)
	b.VerbosityLevel = orDefault(b.VerbosityLevel, VerbosityLevels)
	b.LanguagePreference = orDefault(b.LanguagePreference, Languages)
	if b.CreativityLevel == 0 {
		b.CreativityLevel = DefaultCreativityLevel
	}
	if b.EmojiUsage == nil {
		t := true
		b.EmojiUsage = &t
	}
	if b.UserPreferencesLearning == nil {
		t := true
		b.UserPreferencesLearning = &t
	}

	if c.Retrieval.Strategy == "" {
		c.Retrieval.Strategy = StrategyLexical
	}

	if c.Profile.ModuleType == "" {
		c.Profile.ModuleType = DefaultModuleType
	}
	if len(c.Profile.Capabilities) == 0 {
		c.Profile.Capabilities = append([]string(nil), defaultCapabilities...)
	}
}

func orDefault(v string, allowed []string) string {
	if v == "" {
		return allowed[0]
	}
	return v
}

// Slug derives a module identity from a display name. Accents are folded
// to their base letters, the result is lowercased, and every run of
// characters other than ASCII letters and digits collapses to one hyphen
// with none leading or trailing. "A.v.A" becomes "a-v-a".
func Slug(name string) string {
	folded, _, err := transform.String(accentFolder(), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// accentFolder strips combining marks after canonical decomposition.
func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
