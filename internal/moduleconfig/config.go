// Package moduleconfig defines the declarative record a configurable
// reasoning module is built from, and its YAML serialization.
package moduleconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is a complete module definition. The builder writes it as YAML and
// the registry loads it back; the reasoning module behaves according to its
// contents alone.
type Config struct {
	ID            string   `yaml:"id,omitempty" json:"id,omitempty"`
	Name          string   `yaml:"name" json:"name"`
	Version       string   `yaml:"version,omitempty" json:"version,omitempty"`
	Description   string   `yaml:"description" json:"description"`
	Category      string   `yaml:"category,omitempty" json:"category,omitempty"`
	SpecialtyArea string   `yaml:"specialty_area,omitempty" json:"specialty_area,omitempty"`
	Personality   []string `yaml:"personality,omitempty" json:"personality,omitempty"`

	Templates Templates `yaml:"templates" json:"templates"`
	Phrases   Phrases   `yaml:"phrases,omitempty" json:"phrases,omitempty"`

	// Arithmetic enables the calculation stage of the pipeline.
	Arithmetic bool `yaml:"arithmetic,omitempty" json:"arithmetic,omitempty"`

	KnowledgeAreas  []KnowledgeArea  `yaml:"knowledge_areas,omitempty" json:"knowledge_areas,omitempty"`
	CustomResponses []CustomResponse `yaml:"custom_responses,omitempty" json:"custom_responses,omitempty"`

	ConversationStarters []string          `yaml:"conversation_starters,omitempty" json:"conversation_starters,omitempty"`
	MoodResponses        map[string]string `yaml:"mood_responses,omitempty" json:"mood_responses,omitempty"`
	SpecialCapabilities  []string          `yaml:"special_capabilities,omitempty" json:"special_capabilities,omitempty"`

	Behavior  Behavior  `yaml:"behavior" json:"behavior"`
	Retrieval Retrieval `yaml:"retrieval,omitempty" json:"retrieval,omitempty"`
	Profile   Profile   `yaml:"profile,omitempty" json:"profile,omitempty"`

	CreatedAt *time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`
}

// Templates holds the response pools, keyed by intent. Question, analysis
// and domain templates may contain one "{}" placeholder.
type Templates struct {
	Greeting    []string `yaml:"greeting" json:"greeting"`
	Question    []string `yaml:"question" json:"question"`
	Unknown     []string `yaml:"unknown" json:"unknown"`
	Thanks      []string `yaml:"thanks,omitempty" json:"thanks,omitempty"`
	Goodbye     []string `yaml:"goodbye,omitempty" json:"goodbye,omitempty"`
	Learning    []string `yaml:"learning,omitempty" json:"learning,omitempty"`
	Calculation []string `yaml:"calculation,omitempty" json:"calculation,omitempty"`
	Recall      []string `yaml:"recall,omitempty" json:"recall,omitempty"`
}

// Count returns the total number of templates across all pools.
func (t Templates) Count() int {
	return len(t.Greeting) + len(t.Question) + len(t.Unknown) + len(t.Thanks) +
		len(t.Goodbye) + len(t.Learning) + len(t.Calculation) + len(t.Recall)
}

// Phrases are single canned lines used at specific points of a
// conversation. Any of them may be empty, in which case the matching pool
// is used instead. TopicGreeting and TopicGoodbye take the last discussed
// topic through "{}".
type Phrases struct {
	FirstGreeting     string `yaml:"first_greeting,omitempty" json:"first_greeting,omitempty"`
	ReturningGreeting string `yaml:"returning_greeting,omitempty" json:"returning_greeting,omitempty"`
	TopicGreeting     string `yaml:"topic_greeting,omitempty" json:"topic_greeting,omitempty"`
	LoyalThanks       string `yaml:"loyal_thanks,omitempty" json:"loyal_thanks,omitempty"`
	TopicGoodbye      string `yaml:"topic_goodbye,omitempty" json:"topic_goodbye,omitempty"`
	Identity          string `yaml:"identity,omitempty" json:"identity,omitempty"`
	HowItWorks        string `yaml:"how_it_works,omitempty" json:"how_it_works,omitempty"`
	Capabilities      string `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	VagueQuestion     string `yaml:"vague_question,omitempty" json:"vague_question,omitempty"`
}

// KnowledgeArea is a subject domain scored by keyword presence. Areas
// without Responses still classify input but answer through the question
// templates.
type KnowledgeArea struct {
	Name      string   `yaml:"name" json:"name"`
	Keywords  []string `yaml:"keywords" json:"keywords"`
	Reasoning string   `yaml:"reasoning,omitempty" json:"reasoning,omitempty"`
	Responses []string `yaml:"responses,omitempty" json:"responses,omitempty"`
}

// CustomResponse is a fixed reply returned whenever Trigger appears in the
// input, ahead of retrieval and learning.
type CustomResponse struct {
	Trigger  string `yaml:"trigger" json:"trigger"`
	Response string `yaml:"response" json:"response"`
}

// Behavior holds the personality knobs.
type Behavior struct {
	LearningStyle           string `yaml:"learning_style,omitempty" json:"learning_style,omitempty"`
	ResponseStyle           string `yaml:"response_style,omitempty" json:"response_style,omitempty"`
	InteractionMode         string `yaml:"interaction_mode,omitempty" json:"interaction_mode,omitempty"`
	MemoryRetention         string `yaml:"memory_retention,omitempty" json:"memory_retention,omitempty"`
	CreativityLevel         int    `yaml:"creativity_level,omitempty" json:"creativity_level,omitempty"`
	VerbosityLevel          string `yaml:"verbosity_level,omitempty" json:"verbosity_level,omitempty"`
	EmojiUsage              *bool  `yaml:"emoji_usage,omitempty" json:"emoji_usage,omitempty"`
	LanguagePreference      string `yaml:"language_preference,omitempty" json:"language_preference,omitempty"`
	TimeAwareness           bool   `yaml:"time_awareness,omitempty" json:"time_awareness,omitempty"`
	UserPreferencesLearning *bool  `yaml:"user_preferences_learning,omitempty" json:"user_preferences_learning,omitempty"`
}

// Emoji reports whether emoji are kept in responses. Unset means true.
func (b Behavior) Emoji() bool {
	return b.EmojiUsage == nil || *b.EmojiUsage
}

// LearnsPreferences reports whether user preference flags are tracked.
// Unset means true.
func (b Behavior) LearnsPreferences() bool {
	return b.UserPreferencesLearning == nil || *b.UserPreferencesLearning
}

// Retrieval selects how learned responses are matched.
type Retrieval struct {
	// Strategy is "lexical" (pattern scoring) or "semantic" (concept overlap).
	Strategy string `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	// RecallPhrasing prefixes recalled responses with a recall starter.
	RecallPhrasing bool `yaml:"recall_phrasing,omitempty" json:"recall_phrasing,omitempty"`
}

// Profile describes the module in stats output.
type Profile struct {
	ModuleType   string   `yaml:"module_type,omitempty" json:"module_type,omitempty"`
	Capabilities []string `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
}

// ModuleID returns the stable identity of the module: the explicit ID when
// set, else the slug of its name.
func (c *Config) ModuleID() string {
	if c.ID != "" {
		return c.ID
	}
	return Slug(c.Name)
}

// Parse decodes a YAML module definition, fills defaults and validates it.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %w", ErrInvalidConfig, err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the module definition at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module definition: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode module definition: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode module definition: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path, replacing any existing file atomically.
func Save(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write module definition: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Join(fmt.Errorf("replace module definition: %w", err), os.Remove(tmp))
	}
	return nil
}
