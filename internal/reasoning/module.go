// Package reasoning implements the configurable reasoning module: one
// response pipeline whose vocabulary, domains and personality all come
// from a moduleconfig.Config.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hyperengineering/forge/internal/module"
	"github.com/hyperengineering/forge/internal/moduleconfig"
	"github.com/hyperengineering/forge/internal/types"
)

// Module is a conversational module driven entirely by its config.
// Turns are serialized per instance.
type Module struct {
	cfg     moduleconfig.Config
	learner *module.Learner
	domains []domain
	rng     Rand
	logger  *slog.Logger

	mu     sync.Mutex
	memory memory
	closed bool
}

// ErrClosed is returned for turns started after Close.
var ErrClosed = errors.New("reasoning: module closed")

var _ module.Module = (*Module)(nil)

// Option configures a Module.
type Option func(*Module)

// WithRand sets the random source used for template selection.
func WithRand(r Rand) Option {
	return func(m *Module) {
		m.rng = r
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		m.logger = l
	}
}

// New builds a module from cfg over its own pattern store. cfg is copied
// and completed with defaults; an invalid config is rejected before the
// store is touched.
func New(cfg *moduleconfig.Config, store module.PatternStore, opts ...Option) (*Module, error) {
	if cfg == nil {
		return nil, errors.New("reasoning: nil module config")
	}
	if store == nil {
		return nil, errors.New("reasoning: nil pattern store")
	}

	c := *cfg
	moduleconfig.ApplyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	m := &Module{
		cfg:     c,
		learner: module.NewLearner(store),
		domains: compileDomains(c.KnowledgeAreas),
		memory:  memory{limit: moduleconfig.MemoryCap(c.Behavior.MemoryRetention)},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = newRand()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "reasoning", "module", c.ModuleID())

	return m, nil
}

// Info identifies the module.
func (m *Module) Info() types.ModuleInfo {
	return types.ModuleInfo{
		ID:          m.cfg.ModuleID(),
		Name:        m.cfg.Name,
		Version:     m.cfg.Version,
		Description: m.cfg.Description,
		Category:    m.cfg.Category,
	}
}

// GenerateResponse runs the response pipeline for one turn and stores what
// it learned. The exchange itself is not logged; see Converse.
func (m *Module) GenerateResponse(ctx context.Context, input string, history []types.ConversationTurn) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrClosed
	}

	t, err := m.generate(ctx, input, history)
	if err != nil {
		return "", err
	}
	if t.Learn {
		if err := m.learner.LearnFromConversation(ctx, t.Input, t.Response, t.Confidence); err != nil {
			return "", err
		}
	}
	return t.Response, nil
}

// Converse runs the response pipeline and commits the turn's learning and
// conversation row in one transaction.
func (m *Module) Converse(ctx context.Context, input string, history []types.ConversationTurn) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrClosed
	}

	t, err := m.generate(ctx, input, history)
	if err != nil {
		return "", err
	}
	if err := m.learner.CommitTurn(ctx, t); err != nil {
		return "", err
	}
	return t.Response, nil
}

// generate produces the reply for one turn without writing to the store:
//
//  1. topic memory update
//  2. custom trigger overrides
//  3. learned-response retrieval
//  4. arithmetic
//  5. intent, reasoning and domain classification
//  6. synthesis and personality
//  7. confidence estimation
//
// Stages 2 to 4 short-circuit. Only arithmetic and synthesized replies
// are marked for learning. m.mu must be held.
func (m *Module) generate(ctx context.Context, input string, history []types.ConversationTurn) (module.Turn, error) {
	t := module.Turn{Input: input, History: history}

	m.memory.observe(input, ExtractConcepts(input), m.cfg.Behavior.LearnsPreferences())

	if resp, ok := m.customResponse(input); ok {
		m.logger.Debug("custom trigger matched", "action", "custom_response")
		t.Response = resp
		return t, nil
	}

	recalled, ok, err := m.recall(ctx, input)
	if err != nil {
		return t, err
	}
	if ok {
		m.logger.Debug("learned response recalled", "action", "response_recalled")
		t.Response = applyPersonality(recalled, m.behavior(), m.rng)
		return t, nil
	}

	clean := CleanInput(input)

	if m.cfg.Arithmetic {
		if result, ok := Evaluate(clean); ok {
			m.logger.Debug("arithmetic answered", "action", "calculation")
			t.Response = strings.TrimSpace(pick(m.rng, m.cfg.Templates.Calculation) + " " + result)
			t.Learn, t.Confidence = true, CalculationConfidence
			return t, nil
		}
	}

	tt := &turn{
		clean:     clean,
		intent:    classifyIntent(clean, m.domains),
		reasoning: ClassifyReasoning(clean),
		domain:    classifyDomain(clean, m.domains),
		concepts:  ExtractConcepts(clean),
		history:   history,
	}

	t.Response = applyPersonality(m.synthesize(tt), m.behavior(), m.rng)
	t.Learn = true
	t.Confidence = EstimateConfidence(tt.intent, tt.reasoning, tt.domain != nil, wordCount(clean), len(history))

	m.logger.Debug("response synthesized",
		"action", "response_synthesized",
		"intent", tt.intent,
		"reasoning", tt.reasoning,
		"domain", tt.domainName(),
		"confidence", t.Confidence,
	)
	return t, nil
}

// Close waits for an in-flight turn and rejects later ones. The pattern
// store belongs to the caller and stays open.
func (m *Module) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// behavior is the configured behavior with verbosity adapted to the
// tracked detail level. m.mu must be held.
func (m *Module) behavior() moduleconfig.Behavior {
	b := m.cfg.Behavior
	b.VerbosityLevel = m.memory.verbosity(b.VerbosityLevel)
	return b
}

// customResponse returns the response of the first trigger contained in
// the lowercased input.
func (m *Module) customResponse(input string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(input))
	for _, cr := range m.cfg.CustomResponses {
		if strings.Contains(lower, strings.ToLower(cr.Trigger)) {
			return cr.Response, true
		}
	}
	return "", false
}

// recall looks up a learned response with the configured strategy and
// applies recall phrasing when enabled.
func (m *Module) recall(ctx context.Context, input string) (string, bool, error) {
	var response string

	switch m.cfg.Retrieval.Strategy {
	case moduleconfig.StrategySemantic:
		patterns, err := m.learner.Store().GetPatterns(ctx)
		if err != nil {
			return "", false, fmt.Errorf("load learned patterns: %w", err)
		}
		best, ok := semanticMatch(input, patterns)
		if !ok {
			return "", false, nil
		}
		response = best.Response
	default:
		match, ok, err := m.learner.FindSimilarResponse(ctx, input)
		if err != nil || !ok {
			return "", false, err
		}
		response = match.Response
	}

	if m.cfg.Retrieval.RecallPhrasing && len(m.cfg.Templates.Recall) > 0 {
		response = pick(m.rng, m.cfg.Templates.Recall) + strings.ToLower(response)
	}
	return response, true, nil
}

// RecordExchange appends a completed turn to the conversation log.
func (m *Module) RecordExchange(ctx context.Context, input, response string, history []types.ConversationTurn) error {
	return m.learner.RecordExchange(ctx, input, response, history)
}

// History returns logged exchanges, most recent first.
func (m *Module) History(ctx context.Context, limit int) ([]types.Conversation, error) {
	return m.learner.History(ctx, limit)
}

// Stats returns the store aggregates together with the module profile.
func (m *Module) Stats(ctx context.Context) (*types.ModuleStats, error) {
	stats, err := m.learner.Stats(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	topics := m.memory.distinctTopics()
	m.mu.Unlock()

	stats.Profile = m.profile(topics)
	return stats, nil
}

func (m *Module) profile(discussedTopics int) *types.ModuleProfile {
	c := m.cfg
	mathOps := 0
	if c.Arithmetic {
		mathOps = len(operations)
	}

	return &types.ModuleProfile{
		ModuleType:        c.Profile.ModuleType,
		Capabilities:      append([]string(nil), c.Profile.Capabilities...),
		ResponseTemplates: c.Templates.Count(),
		IntentCategories:  len(intentKeywords),
		KnowledgeDomains:  len(c.KnowledgeAreas),
		MathOperations:    mathOps,
		ReasoningPatterns: len(reasoningKeywords),
		PersonalityTraits: len(c.Personality),
		CustomResponses:   len(c.CustomResponses),
		DiscussedTopics:   discussedTopics,
		Settings: map[string]string{
			"learning_style":      c.Behavior.LearningStyle,
			"response_style":      c.Behavior.ResponseStyle,
			"interaction_mode":    c.Behavior.InteractionMode,
			"memory_retention":    c.Behavior.MemoryRetention,
			"creativity_level":    fmt.Sprint(c.Behavior.CreativityLevel),
			"verbosity_level":     c.Behavior.VerbosityLevel,
			"emoji_usage":         fmt.Sprint(c.Behavior.Emoji()),
			"language_preference": c.Behavior.LanguagePreference,
			"retrieval_strategy":  c.Retrieval.Strategy,
		},
		CreatedAt: c.CreatedAt,
	}
}

func (t *turn) domainName() string {
	if t.domain == nil {
		return ""
	}
	return t.domain.name
}
