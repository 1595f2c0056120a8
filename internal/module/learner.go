package module

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/hyperengineering/forge/internal/store"
	"github.com/hyperengineering/forge/internal/types"
)

// Scoring weights for FindSimilarResponse.
const (
	ExactMatchWeight     = 10.0
	PatternInInputWeight = 5.0
	InputInPatternWeight = 3.0
	UsageBoostPerUse     = 0.1

	// AcceptanceThreshold is the score a candidate must exceed to be returned.
	AcceptanceThreshold = 2.0

	// DefaultHistoryLimit is used when History is called with a non-positive limit.
	DefaultHistoryLimit = 10
)

// Match is a learned response selected by FindSimilarResponse.
type Match struct {
	Pattern  types.LearnedPattern
	Response string
	Score    float64
}

// Learner implements the shared adaptive-learning protocol over one
// module's pattern store. Concrete modules embed or hold a Learner; each
// module owns its own store handle.
type Learner struct {
	store PatternStore
}

// NewLearner returns a Learner backed by s.
func NewLearner(s PatternStore) *Learner {
	return &Learner{store: s}
}

// Store returns the underlying pattern store.
func (l *Learner) Store() PatternStore {
	return l.store
}

// Score rates how well a stored pattern matches normalized input.
func Score(input string, p types.LearnedPattern) float64 {
	var score float64
	switch {
	case p.Pattern == input:
		score = ExactMatchWeight * p.Confidence
	case strings.Contains(input, p.Pattern):
		score = PatternInInputWeight * p.Confidence
	case strings.Contains(p.Pattern, input):
		score = InputInPatternWeight * p.Confidence
	default:
		overlap := sharedWords(wordSet(input), wordSet(p.Pattern))
		score = float64(overlap) * p.Confidence
	}
	return score * (1 + UsageBoostPerUse*float64(p.UsageCount))
}

// FindSimilarResponse returns the best-scoring learned response for input.
// Only a strictly higher score replaces the current best, so the first
// pattern in store order wins ties. ok is false when no candidate exceeds
// AcceptanceThreshold, including when the store is empty.
func (l *Learner) FindSimilarResponse(ctx context.Context, input string) (*Match, bool, error) {
	normalized := Normalize(input)
	if normalized == "" {
		return nil, false, nil
	}

	patterns, err := l.store.GetPatterns(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load learned patterns: %w", err)
	}

	var (
		best      *types.LearnedPattern
		bestScore float64
	)
	for i := range patterns {
		score := Score(normalized, patterns[i])
		if score > bestScore {
			bestScore = score
			best = &patterns[i]
		}
	}

	if best == nil || bestScore <= AcceptanceThreshold {
		return nil, false, nil
	}

	return &Match{Pattern: *best, Response: best.Response, Score: bestScore}, true, nil
}

// LearnFromConversation stores response against every pattern extracted
// from userInput. Confidence is clamped to [0,1].
func (l *Learner) LearnFromConversation(ctx context.Context, userInput, response string, confidence float64) error {
	patterns := ExtractPatterns(userInput)
	if len(patterns) == 0 {
		return nil
	}

	if err := l.store.UpsertPatterns(ctx, patterns, response, ClampConfidence(confidence)); err != nil {
		return fmt.Errorf("learn from conversation: %w", err)
	}
	return nil
}

// RecordExchange appends a completed turn to the conversation log.
func (l *Learner) RecordExchange(ctx context.Context, input, response string, history []types.ConversationTurn) error {
	if _, err := l.store.AppendConversation(ctx, input, response, history); err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

// Turn is one generated exchange awaiting commit. When Learn is set the
// response is stored against every pattern of Input at Confidence.
type Turn struct {
	Input      string
	Response   string
	History    []types.ConversationTurn
	Learn      bool
	Confidence float64
}

// CommitTurn writes the turn's learning and its conversation row in one
// transaction, so a failed turn leaves the store unchanged.
func (l *Learner) CommitTurn(ctx context.Context, t Turn) error {
	rec := store.TurnRecord{
		UserInput:  t.Input,
		AIResponse: t.Response,
		History:    t.History,
	}
	if t.Learn {
		rec.Patterns = ExtractPatterns(t.Input)
		rec.Confidence = ClampConfidence(t.Confidence)
	}
	if _, err := l.store.RecordTurn(ctx, rec); err != nil {
		return fmt.Errorf("commit turn: %w", err)
	}
	return nil
}

// Stats delegates aggregate counts to the store.
func (l *Learner) Stats(ctx context.Context) (*types.ModuleStats, error) {
	stats, err := l.store.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("get module stats: %w", err)
	}
	return stats, nil
}

// History returns logged exchanges, most recent first.
func (l *Learner) History(ctx context.Context, limit int) ([]types.Conversation, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	convs, err := l.store.GetConversations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("get conversation history: %w", err)
	}
	return convs, nil
}

// ClampConfidence bounds c to [0,1]. NaN becomes 0.
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return 0
	}
	return math.Max(0, math.Min(1, c))
}
