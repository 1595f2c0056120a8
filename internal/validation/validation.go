package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperengineering/forge/internal/types"
)

// Field limits for chat input.
const (
	MaxMessageLength = 4000
	MaxHistoryTurns  = 200
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateNonEmptyList returns an error unless values holds at least one
// non-blank entry.
func ValidateNonEmptyList(field string, values []string) *ValidationError {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: "must contain at least one entry",
	}
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateIntRange returns an error if the value is outside [min, max].
func ValidateIntRange(field string, value, min, max int) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d", min, max),
		}
	}
	return nil
}

// ValidateText applies the checks every free-text field shares: valid
// UTF-8, no null bytes, and at most max runes.
func ValidateText(c *Collector, field, value string, max int) {
	c.Add(ValidateUTF8(field, value))
	c.Add(ValidateNoNullBytes(field, value))
	c.Add(ValidateMaxLength(field, value, max))
}

// ValidateChatRequest checks a chat turn submitted over the API.
func ValidateChatRequest(req types.ChatRequest) []ValidationError {
	c := &Collector{}

	c.Add(ValidateRequired("message", req.Message))
	ValidateText(c, "message", req.Message, MaxMessageLength)

	if len(req.History) > MaxHistoryTurns {
		c.Add(&ValidationError{
			Field:   "history",
			Message: fmt.Sprintf("exceeds maximum of %d turns", MaxHistoryTurns),
		})
	}

	roles := []string{string(types.RoleUser), string(types.RoleAssistant)}
	for i, turn := range req.History {
		prefix := fmt.Sprintf("history[%d]", i)
		c.Add(ValidateEnum(prefix+".role", string(turn.Role), roles))
		c.Add(ValidateUTF8(prefix+".content", turn.Content))
		c.Add(ValidateNoNullBytes(prefix+".content", turn.Content))
	}

	return c.Errors()
}
