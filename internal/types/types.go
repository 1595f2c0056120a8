package types

import (
	"encoding/json"
	"time"
)

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one caller-supplied message of the in-memory history.
// Modules read it; they never persist it themselves.
type ConversationTurn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// LearnedPattern is a pattern-to-response association learned from a conversation.
type LearnedPattern struct {
	Pattern    string    `json:"pattern"`
	Response   string    `json:"response"`
	Confidence float64   `json:"confidence"`
	UsageCount int       `json:"usage_count"`
	LastUsed   time.Time `json:"last_used"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conversation is one logged exchange.
type Conversation struct {
	ID         string             `json:"id"`
	UserInput  string             `json:"user_input"`
	AIResponse string             `json:"ai_response"`
	Context    []ConversationTurn `json:"context"`
	Timestamp  time.Time          `json:"timestamp"`
}

// MarshalJSON ensures nil Context marshals as [] not null.
func (c Conversation) MarshalJSON() ([]byte, error) {
	if c.Context == nil {
		c.Context = []ConversationTurn{}
	}
	type Alias Conversation
	return json.Marshal(Alias(c))
}

// ModuleStats holds the derived aggregates of a module's pattern store.
// LearnedResponses and TotalConversations come from persisted counters; the
// rest is recomputed on every call.
type ModuleStats struct {
	LearnedResponses   int64          `json:"learned_responses"`
	TotalConversations int64          `json:"total_conversations"`
	AvgConfidence      float64        `json:"avg_confidence"`
	ActivePatterns     int64          `json:"active_patterns"`
	Profile            *ModuleProfile `json:"profile,omitempty"`
}

// ModuleProfile describes the configuration-derived capabilities of a module.
type ModuleProfile struct {
	ModuleType        string            `json:"module_type"`
	Capabilities      []string          `json:"capabilities"`
	ResponseTemplates int               `json:"response_templates"`
	IntentCategories  int               `json:"intent_categories"`
	KnowledgeDomains  int               `json:"knowledge_domains"`
	MathOperations    int               `json:"math_operations"`
	ReasoningPatterns int               `json:"reasoning_patterns"`
	PersonalityTraits int               `json:"personality_traits"`
	CustomResponses   int               `json:"custom_responses"`
	DiscussedTopics   int               `json:"discussed_topics"`
	Settings          map[string]string `json:"settings"`
	CreatedAt         *time.Time        `json:"created_at,omitempty"`
}

// MarshalJSON ensures nil collections marshal as empty values, not null.
func (p ModuleProfile) MarshalJSON() ([]byte, error) {
	if p.Capabilities == nil {
		p.Capabilities = []string{}
	}
	if p.Settings == nil {
		p.Settings = map[string]string{}
	}
	type Alias ModuleProfile
	return json.Marshal(Alias(p))
}

// ModuleInfo identifies an available module.
type ModuleInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Builtin     bool   `json:"builtin"`
	Source      string `json:"source,omitempty"`
	Loaded      bool   `json:"loaded"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Modules int    `json:"modules"`
}

// ModuleListResponse is returned by GET /modules.
type ModuleListResponse struct {
	Modules    []ModuleInfo      `json:"modules"`
	LoadErrors []ModuleLoadIssue `json:"load_errors"`
}

// MarshalJSON ensures nil slices marshal as [] not null.
func (r ModuleListResponse) MarshalJSON() ([]byte, error) {
	if r.Modules == nil {
		r.Modules = []ModuleInfo{}
	}
	if r.LoadErrors == nil {
		r.LoadErrors = []ModuleLoadIssue{}
	}
	type Alias ModuleListResponse
	return json.Marshal(Alias(r))
}

// ModuleLoadIssue reports a module definition that could not be activated.
type ModuleLoadIssue struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ChatRequest is the body of POST /modules/{module}/chat.
type ChatRequest struct {
	Message string             `json:"message"`
	History []ConversationTurn `json:"history,omitempty"`
}

// ChatResponse is the reply to a chat turn.
type ChatResponse struct {
	Module   string `json:"module"`
	Response string `json:"response"`
}

// HistoryResponse lists logged exchanges, most recent first.
type HistoryResponse struct {
	Module        string         `json:"module"`
	Conversations []Conversation `json:"conversations"`
}

// MarshalJSON ensures nil Conversations marshals as [] not null.
func (r HistoryResponse) MarshalJSON() ([]byte, error) {
	if r.Conversations == nil {
		r.Conversations = []Conversation{}
	}
	type Alias HistoryResponse
	return json.Marshal(Alias(r))
}

// BuildResponse is returned when a module definition is written.
type BuildResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FileName string `json:"file"`
}
