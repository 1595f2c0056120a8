package moduleconfig

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperengineering/forge/internal/validation"
)

// ErrInvalidConfig is wrapped by every definition that fails to decode or
// validate.
var ErrInvalidConfig = errors.New("invalid module config")

// Field limits.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 1000
	MaxTemplateLength    = 2000
	MaxTriggerLength     = 200
)

var idPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []validation.ValidationError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks the definition and reports every failure at once. Empty
// enum fields are accepted because ApplyDefaults fills them.
func (c *Config) Validate() error {
	v := &validation.Collector{}

	v.Add(validation.ValidateRequired("name", c.Name))
	validation.ValidateText(v, "name", c.Name, MaxNameLength)
	if strings.TrimSpace(c.Name) != "" && Slug(c.Name) == "" {
		v.Add(&validation.ValidationError{Field: "name", Message: "must contain at least one letter or digit"})
	}
	if c.ID != "" && !idPattern.MatchString(c.ID) {
		v.Add(&validation.ValidationError{Field: "id", Message: "must be lowercase alphanumeric with hyphens"})
	}

	v.Add(validation.ValidateRequired("description", c.Description))
	validation.ValidateText(v, "description", c.Description, MaxDescriptionLength)

	v.Add(validation.ValidateNonEmptyList("templates.greeting", c.Templates.Greeting))
	v.Add(validation.ValidateNonEmptyList("templates.question", c.Templates.Question))
	v.Add(validation.ValidateNonEmptyList("templates.unknown", c.Templates.Unknown))
	validateTemplates(v, "templates.greeting", c.Templates.Greeting)
	validateTemplates(v, "templates.question", c.Templates.Question)
	validateTemplates(v, "templates.unknown", c.Templates.Unknown)
	validateTemplates(v, "templates.thanks", c.Templates.Thanks)
	validateTemplates(v, "templates.goodbye", c.Templates.Goodbye)
	validateTemplates(v, "templates.learning", c.Templates.Learning)
	validateTemplates(v, "templates.calculation", c.Templates.Calculation)
	validateTemplates(v, "templates.recall", c.Templates.Recall)

	for i, area := range c.KnowledgeAreas {
		prefix := fmt.Sprintf("knowledge_areas[%d]", i)
		v.Add(validation.ValidateRequired(prefix+".name", area.Name))
		v.Add(validation.ValidateNonEmptyList(prefix+".keywords", area.Keywords))
		validateTemplates(v, prefix+".responses", area.Responses)
	}

	for i, cr := range c.CustomResponses {
		prefix := fmt.Sprintf("custom_responses[%d]", i)
		v.Add(validation.ValidateRequired(prefix+".trigger", cr.Trigger))
		validation.ValidateText(v, prefix+".trigger", cr.Trigger, MaxTriggerLength)
		v.Add(validation.ValidateRequired(prefix+".response", cr.Response))
		validation.ValidateText(v, prefix+".response", cr.Response, MaxTemplateLength)
	}

	b := c.Behavior
	validateEnum(v, "behavior.learning_style", b.LearningStyle, LearningStyles)
	validateEnum(v, "behavior.response_style", b.ResponseStyle, ResponseStyles)
	validateEnum(v, "behavior.interaction_mode", b.InteractionMode, InteractionModes)
	validateEnum(v, "behavior.memory_retention", b.MemoryRetention, MemoryRetentions)
	validateEnum(v, "behavior.verbosity_level", b.VerbosityLevel, VerbosityLevels)
	validateEnum(v, "behavior.language_preference", b.LanguagePreference, Languages)
	if b.CreativityLevel != 0 {
		v.Add(validation.ValidateIntRange("behavior.creativity_level", b.CreativityLevel, MinCreativityLevel, MaxCreativityLevel))
	}
	validateEnum(v, "retrieval.strategy", c.Retrieval.Strategy, RetrievalStrategies)

	if v.HasErrors() {
		return &ValidationError{Fields: v.Errors()}
	}
	return nil
}

func validateTemplates(v *validation.Collector, field string, templates []string) {
	for i, t := range templates {
		validation.ValidateText(v, fmt.Sprintf("%s[%d]", field, i), t, MaxTemplateLength)
	}
}

func validateEnum(v *validation.Collector, field, value string, allowed []string) {
	if value == "" {
		return
	}
	v.Add(validation.ValidateEnum(field, value, allowed))
}
